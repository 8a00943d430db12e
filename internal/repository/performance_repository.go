package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"crypto-sentinel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PerformanceRepository stores performance records in Postgres as the
// durable alternative to the JSON file store. Signal snapshots and
// outcomes are kept as jsonb.
type PerformanceRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPerformanceRepository(pool PgxPool, tracer trace.Tracer) *PerformanceRepository {
	return &PerformanceRepository{pool: pool, tracer: tracer}
}

func (r *PerformanceRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "performance-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signal_performance (
			signal_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			persona TEXT NOT NULL DEFAULT '',
			entry_price DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			signal JSONB NOT NULL,
			outcome JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_signal_performance_status
			ON signal_performance (status);
	`)
	return err
}

func (r *PerformanceRepository) Get(ctx context.Context, id string) (*domain.PerformanceRecord, error) {
	_, span := r.tracer.Start(ctx, "performance-repo.get")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT signal_id, created_at, persona, entry_price, status, signal, outcome
		 FROM signal_performance WHERE signal_id = $1`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PerformanceRepository) Put(ctx context.Context, rec *domain.PerformanceRecord) error {
	_, span := r.tracer.Start(ctx, "performance-repo.put")
	defer span.End()

	signalJSON, err := json.Marshal(rec.Signal)
	if err != nil {
		return fmt.Errorf("encode signal snapshot: %w", err)
	}
	var outcomeJSON []byte
	if rec.Outcome != nil {
		if outcomeJSON, err = json.Marshal(rec.Outcome); err != nil {
			return fmt.Errorf("encode outcome: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO signal_performance (signal_id, created_at, persona, entry_price, status, signal, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (signal_id) DO UPDATE SET
		     status = EXCLUDED.status,
		     outcome = EXCLUDED.outcome`,
		rec.SignalID,
		rec.Timestamp.UTC(),
		rec.Persona,
		rec.EntryPrice,
		string(rec.Status),
		signalJSON,
		outcomeJSON,
	)
	return err
}

func (r *PerformanceRepository) ScanActive(ctx context.Context) ([]*domain.PerformanceRecord, error) {
	return r.scanStatus(ctx, domain.StatusActive)
}

func (r *PerformanceRepository) ScanEvaluated(ctx context.Context) ([]*domain.PerformanceRecord, error) {
	return r.scanStatus(ctx, domain.StatusEvaluated)
}

func (r *PerformanceRepository) scanStatus(ctx context.Context, status domain.RecordStatus) ([]*domain.PerformanceRecord, error) {
	_, span := r.tracer.Start(ctx, "performance-repo.scan")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT signal_id, created_at, persona, entry_price, status, signal, outcome
		 FROM signal_performance WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PerformanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (*domain.PerformanceRecord, error) {
	rec := &domain.PerformanceRecord{}
	var status string
	var signalJSON, outcomeJSON []byte

	if err := scan(&rec.SignalID, &rec.Timestamp, &rec.Persona, &rec.EntryPrice, &status, &signalJSON, &outcomeJSON); err != nil {
		return nil, err
	}

	rec.Status = domain.RecordStatus(status)
	if err := json.Unmarshal(signalJSON, &rec.Signal); err != nil {
		return nil, fmt.Errorf("decode signal snapshot for %s: %w", rec.SignalID, err)
	}
	if len(outcomeJSON) > 0 {
		rec.Outcome = &domain.Outcome{}
		if err := json.Unmarshal(outcomeJSON, rec.Outcome); err != nil {
			return nil, fmt.Errorf("decode outcome for %s: %w", rec.SignalID, err)
		}
	}
	return rec, nil
}
