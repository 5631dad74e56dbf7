package domain

import (
	"context"
	"time"

	"indexcrawler/internal/core/artifact"
)

// SchedulerPort is the public port exposed by the crawler module
type SchedulerPort interface {
	RunOnce(ctx context.Context) CycleResult
	Run(ctx context.Context, interval time.Duration) error
	Index() int64
	Snapshot() Snapshot
}

// RecordSource streams the entries of one segment; Next returns io.EOF when done
type RecordSource interface {
	Next() (Entry, error)
	Meta() SourceMeta
	Close() error
}

// SourceFactory opens a fetched segment file
type SourceFactory interface {
	Open(path string) (RecordSource, error)
}

// Prober checks whether a segment is published
type Prober interface {
	Exists(ctx context.Context, segment int64) (bool, error)
}

// Fetcher downloads a segment to a local temp file and returns its path
type Fetcher interface {
	Download(ctx context.Context, segment int64, dir string) (string, error)
}

// Normalizer turns an entry into an artifact; ok is false for unrepresentable entries
type Normalizer interface {
	Artifact(e Entry) (artifact.Artifact, bool)
}

// CheckpointStore persists the next segment to attempt
type CheckpointStore interface {
	// Highest returns the recorded segment; ok is false when nothing is recorded
	Highest(ctx context.Context) (segment int64, ok bool, err error)
	// Advance records next and removes every other record
	Advance(ctx context.Context, next int64) error
	// Location names the backing store for logs
	Location() string
}

// LedgerRepo records cycles for operators
type LedgerRepo interface {
	// StartCycle marks a cycle as running
	StartCycle(ctx context.Context, cycleID string, segment int64, started time.Time) error
	// FinishCycle stores the outcome of a cycle
	FinishCycle(ctx context.Context, res CycleResult) error
	// Recent lists the latest cycles, newest first
	Recent(ctx context.Context, limit int) ([]CycleResult, error)
}
