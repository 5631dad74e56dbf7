// Package repo provides postgres access for the cycle ledger
package repo

import (
	"context"
	"fmt"
	"time"

	"indexcrawler/internal/modkit/repokit"
	"indexcrawler/internal/platform/store"
	ptime "indexcrawler/internal/platform/time"
	"indexcrawler/internal/services/crawler/domain"
)

// Schema creates the ledger table. Safe to run on every start
const Schema = `
CREATE TABLE IF NOT EXISTS crawl_cycles (
	cycle_id     uuid        PRIMARY KEY,
	segment      bigint      NOT NULL,
	status       text        NOT NULL,
	succeeded    boolean     NOT NULL DEFAULT false,
	unique_count integer     NOT NULL DEFAULT 0,
	duplicates   integer     NOT NULL DEFAULT 0,
	skipped      integer     NOT NULL DEFAULT 0,
	total        integer     NOT NULL DEFAULT 0,
	batches      integer     NOT NULL DEFAULT 0,
	batches_sent integer     NOT NULL DEFAULT 0,
	published_at timestamptz,
	error        text,
	started_at   timestamptz NOT NULL,
	finished_at  timestamptz
);
CREATE INDEX IF NOT EXISTS crawl_cycles_started_idx ON crawl_cycles (started_at DESC);
CREATE INDEX IF NOT EXISTS crawl_cycles_segment_idx ON crawl_cycles (segment);
`

// statusRunning marks a started cycle without an outcome yet
const statusRunning = "running"

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// EnsureSchema applies Schema
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, Schema)
	return err
}

// StartCycle marks a cycle as running (idempotent)
func (r *queries) StartCycle(ctx context.Context, cycleID string, segment int64, started time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO crawl_cycles (cycle_id, segment, status, started_at)
		VALUES ($1::uuid, $2, $3, $4)
		ON CONFLICT (cycle_id) DO UPDATE
		SET segment = EXCLUDED.segment, status = EXCLUDED.status, started_at = EXCLUDED.started_at,
			finished_at = null, error = null
	`, cycleID, segment, statusRunning, started.UTC())
	return err
}

// FinishCycle stores the outcome. A cycle that was never started is inserted
func (r *queries) FinishCycle(ctx context.Context, res domain.CycleResult) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO crawl_cycles (
			cycle_id, segment, status, succeeded, unique_count, duplicates, skipped, total,
			batches, batches_sent, published_at, error, started_at, finished_at
		)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12,''), $13, $14)
		ON CONFLICT (cycle_id) DO UPDATE SET
			status = EXCLUDED.status,
			succeeded = EXCLUDED.succeeded,
			unique_count = EXCLUDED.unique_count,
			duplicates = EXCLUDED.duplicates,
			skipped = EXCLUDED.skipped,
			total = EXCLUDED.total,
			batches = EXCLUDED.batches,
			batches_sent = EXCLUDED.batches_sent,
			published_at = EXCLUDED.published_at,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`,
		res.CycleID, res.Segment, string(res.Status), res.Succeeded, res.Unique, res.Duplicates, res.Skipped, res.Total,
		res.Batches, res.BatchesSent, ptime.Ptr(res.Published), res.Err, res.Started.UTC(), res.Finished.UTC(),
	)
	if err != nil {
		return fmt.Errorf("finish cycle %s: %w", res.CycleID, err)
	}
	return nil
}

// Recent lists the latest cycles, newest first
func (r *queries) Recent(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	if limit <= 0 {
		limit = 20
	}
	return store.Many(ctx, r.q, scanCycle, `
		SELECT cycle_id::text, segment, status, succeeded, unique_count, duplicates, skipped, total,
			batches, batches_sent, published_at, coalesce(error, ''), started_at, finished_at
		FROM crawl_cycles
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
}

func scanCycle(row store.Row) (domain.CycleResult, error) {
	var (
		c         domain.CycleResult
		status    string
		published *time.Time
		finished  *time.Time
	)
	if err := row.Scan(
		&c.CycleID, &c.Segment, &status, &c.Succeeded, &c.Unique, &c.Duplicates, &c.Skipped, &c.Total,
		&c.Batches, &c.BatchesSent, &published, &c.Err, &c.Started, &finished,
	); err != nil {
		return domain.CycleResult{}, err
	}
	c.Status = domain.CycleStatus(status)
	c.Published, c.Finished = ptime.Value(published), ptime.Value(finished)
	c.Started = c.Started.UTC()
	return c, nil
}
