package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmehra2102/UniPay/pkg/database"
)

// AppendSQL writes ev inside the caller's transaction.
func AppendSQL(ctx context.Context, tx *sql.Tx, ev Event, now time.Time) error {
	headers := ev.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	raw, err := json.Marshal(headers)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`,
		ev.AggregateType, ev.AggregateID, ev.Type, ev.Payload, string(raw), ev.Traceparent, database.FormatTime(now))
	return err
}

type SQLiteStore struct {
	log   *slog.Logger
	db    *sql.DB
	clock func() time.Time
}

func NewSQLiteStore(log *slog.Logger, db *sql.DB) *SQLiteStore {
	return &SQLiteStore{log: log, db: db, clock: time.Now}
}

func (s *SQLiteStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	now := s.clock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count
		FROM outbox
		WHERE status = 'pending'
		   OR (status = 'in_progress' AND lease_until < ?)
		ORDER BY id
		LIMIT ?`, database.FormatTime(now), batchSize)
	if err != nil {
		return nil, err
	}

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			headers   string
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &headers, &ev.Traceparent, &createdAt, &ev.RetryCount); err != nil {
			rows.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(headers), &ev.Headers); err != nil {
			rows.Close()
			return nil, err
		}
		if ev.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		ev.Status = StatusInProgress
		ev.RelayID = relayID
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	query, args := inClause(`UPDATE outbox SET status='in_progress', relay_id=?, lease_until=? WHERE id IN `, ids)
	args = append([]any{relayID, database.FormatTime(now.Add(lease))}, args...)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *SQLiteStore) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := inClause(`UPDATE outbox SET status='sent', lease_until=NULL WHERE id IN `, ids)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no rows updated")
	}
	return nil
}

func (s *SQLiteStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox
		SET status = CASE WHEN retry_count + 1 >= ? THEN 'failed' ELSE 'pending' END,
		    last_error = ?,
		    retry_count = retry_count + 1,
		    lease_until = NULL
		WHERE id = ?`, MaxRetries, errMsg, id)
	return err
}

func inClause(prefix string, ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return prefix + "(" + strings.Join(marks, ",") + ")", args
}
