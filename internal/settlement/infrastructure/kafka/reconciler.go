package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/UniPay/internal/settlement/application"
	"github.com/dmehra2102/UniPay/internal/settlement/domain"
	"github.com/dmehra2102/UniPay/pkg/idempotency"
	"github.com/dmehra2102/UniPay/pkg/metrics"
	"github.com/dmehra2102/UniPay/pkg/outbox"
	"github.com/dmehra2102/UniPay/pkg/tracing"
)

// MessageReader is the subset of *kafka.Reader the reconciler uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reconciler consumes settlement events and reports purchases that never got
// a matching reward grant. It does not repair anything.
type Reconciler struct {
	log     *slog.Logger
	reader  MessageReader
	matcher *application.Matcher
	dedup   idempotency.Deduper
	every   time.Duration
	clock   func() time.Time
	tracer  trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewReconciler(log *slog.Logger, reader MessageReader, window time.Duration, dedup idempotency.Deduper) *Reconciler {
	every := window / 2
	if every <= 0 {
		every = time.Second
	}
	return &Reconciler{
		log:     log,
		reader:  reader,
		matcher: application.NewMatcher(window),
		dedup:   dedup,
		every:   every,
		clock:   time.Now,
		tracer:  otel.Tracer("settlement-reconciler"),
	}
}

func (r *Reconciler) Run(ctx context.Context) error {
	defer r.reader.Close()

	go r.sweepLoop(ctx)

	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.Handle(ctx, msg)
		if err := r.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			r.log.Warn("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

// Handle feeds one message to the matcher, skipping redeliveries.
func (r *Reconciler) Handle(ctx context.Context, msg kafka.Message) {
	key := idempotency.OffsetKey(msg.Topic, msg.Partition, msg.Offset)
	seen, err := r.dedup.Seen(ctx, key)
	if err != nil {
		r.log.Error("idempotency check failed", "key", key, "err", err)
	}
	if seen {
		r.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := r.tracer.Start(msgCtx, "ReconcileSettlementEvent")
	defer span.End()

	switch eventType(msg.Headers) {
	case domain.EventPurchaseRecorded:
		var ev domain.PurchaseRecorded
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			r.log.ErrorContext(msgCtx, "unmarshal failed", "type", domain.EventPurchaseRecorded, "err", err)
			return
		}
		r.matcher.ObservePurchase(ev)
	case domain.EventRewardGranted:
		var ev domain.RewardGranted
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			r.log.ErrorContext(msgCtx, "unmarshal failed", "type", domain.EventRewardGranted, "err", err)
			return
		}
		r.matcher.ObserveReward(ev)
	default:
		r.log.DebugContext(msgCtx, "ignoring event", "key", string(msg.Key))
	}
}

// Sweep reports purchases whose window closed and returns how many it found.
func (r *Reconciler) Sweep(ctx context.Context) int {
	unmatched := r.matcher.Sweep(r.clock())
	for _, p := range unmatched {
		metrics.UnmatchedPurchase()
		r.log.WarnContext(ctx, "purchase recorded without reward grant",
			"purchase_id", p.PurchaseID,
			"recorded_at", p.RecordedAt,
		)
	}
	return len(unmatched)
}

func (r *Reconciler) sweepLoop(ctx context.Context) {
	t := time.NewTicker(r.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

func eventType(headers []kafka.Header) string {
	for _, h := range headers {
		if h.Key == outbox.EventTypeHeader {
			return string(h.Value)
		}
	}
	return ""
}
