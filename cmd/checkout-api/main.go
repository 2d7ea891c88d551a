package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	catalogapp "github.com/dmehra2102/UniPay/internal/catalog/application"
	cataloghttp "github.com/dmehra2102/UniPay/internal/catalog/infrastructure/http"
	instrumentapp "github.com/dmehra2102/UniPay/internal/instrument/application"
	instrumenthttp "github.com/dmehra2102/UniPay/internal/instrument/infrastructure/http"
	pricingapp "github.com/dmehra2102/UniPay/internal/pricing/application"
	"github.com/dmehra2102/UniPay/internal/pricing/infrastructure/coingecko"
	pricinghttp "github.com/dmehra2102/UniPay/internal/pricing/infrastructure/http"
	settlementapp "github.com/dmehra2102/UniPay/internal/settlement/application"
	settlementhttp "github.com/dmehra2102/UniPay/internal/settlement/infrastructure/http"
	"github.com/dmehra2102/UniPay/pkg/health"
	"github.com/dmehra2102/UniPay/pkg/httpx"
	"github.com/dmehra2102/UniPay/pkg/idempotency"
	"github.com/dmehra2102/UniPay/pkg/logging"
	"github.com/dmehra2102/UniPay/pkg/metrics"
	"github.com/dmehra2102/UniPay/pkg/outbox"
	"github.com/dmehra2102/UniPay/pkg/shutdown"
	"github.com/dmehra2102/UniPay/pkg/tracing"
)

func main() {
	_ = godotenv.Load()
	log := logging.NewWithLevel(env("LOG_LEVEL", "info"))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	httpAddr := env("HTTP_ADDR", ":5000")
	grpcAddr := env("GRPC_ADDR", ":50051")
	prefix := "/" + strings.Trim(env("API_PREFIX", "/api"), "/")
	driver := env("STORE_DRIVER", "sqlite")
	redisAddr := env("REDIS_ADDR", "")
	kafkaAddr := env("KAFKA_ADDR", "")
	outboxTopic := env("OUTBOX_TOPIC", "settlement.events")
	otlp := env("OTLP_ENDPOINT", "")
	feedURL := env("PRICE_FEED_URL", coingecko.DefaultURL)
	feedTimeout := envDuration("PRICE_FEED_TIMEOUT", 3*time.Second)
	feedRPS := envFloat("PRICE_FEED_RPS", 5)

	tp, err := tracing.Init(ctx, "checkout-api", otlp, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	st, err := openStores(ctx, log, driver)
	if err != nil {
		log.Error("store init failed", "driver", driver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	// Idempotency store
	var idem idempotency.Store
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis connect failed", "addr", redisAddr, "err", err)
			os.Exit(1)
		}
		idem = idempotency.NewRedisStore(rdb, idempotency.DefaultTTL)
	} else {
		log.Warn("REDIS_ADDR not set, idempotency keys kept in memory")
		idem = idempotency.NewMemoryStore()
	}

	// Services
	feed := coingecko.NewFeed(log, feedURL, feedTimeout, coingecko.WithRateLimit(feedRPS))
	pricing := pricingapp.NewService(log, feed)
	catalog := catalogapp.NewService(log, st.goods)
	instruments := instrumentapp.NewService(log, st.instruments)
	settlement := settlementapp.NewService(log, st.settlement, "checkout-api")

	// HTTP router
	api := chi.NewRouter()
	api.Get("/health", health.Handler(log, catalog.Ping))
	cataloghttp.NewHandler(log, catalog).Register(api)
	pricinghttp.NewHandler(log, pricing).Register(api)
	instrumenthttp.NewHandler(log, instruments).Register(api)
	settlementhttp.NewHandler(log, settlement, pricing, idempotency.Middleware(idem, idempotency.DefaultTTL, log)).Register(api)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, httpx.AccessLog(log), tracing.Middleware, metrics.Middleware)
	r.Handle("/metrics", metrics.Handler())
	r.Mount(prefix, api)

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	hs, err := health.Run(grpcAddr, "unipay.checkout")
	if err != nil {
		log.Error("grpc health listen failed", "addr", grpcAddr, "err", err)
		os.Exit(1)
	}

	// Outbox relay
	if kafkaAddr != "" {
		writer := outbox.NewKafkaWriter(strings.Split(kafkaAddr, ",")...)
		defer writer.Close()
		relay := outbox.NewRelay(log, st.outbox, outbox.NewDispatcher(log, writer, outboxTopic), "checkout-api-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	} else {
		log.Info("KAFKA_ADDR not set, outbox rows stay pending for settlement-relay")
	}

	go func() {
		log.Info("http listening", "addr", httpAddr, "prefix", prefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	hs.Stop()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("checkout-api shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(env(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(env(k, ""), 64); err == nil && f > 0 {
		return f
	}
	return def
}
