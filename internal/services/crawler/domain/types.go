// Package domain holds the types and ports of the incremental segment crawler
package domain

import (
	"time"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/adapters/sink"
)

// Entry re-exports the raw segment record the normalizer consumes
type Entry = mavenindex.Document

// SourceMeta re-exports the segment summary reported by a source
type SourceMeta = mavenindex.Meta

// Sink re-exports the dispatch contract implemented by the sink adapters
type Sink = sink.Sink

// CycleStatus is the terminal state of one scheduler cycle
type CycleStatus string

// Cycle states
const (
	// StatusOK means the segment was fully dispatched and the index advanced
	StatusOK CycleStatus = "ok"
	// StatusFailed means reading or dispatch failed; the index is retained
	StatusFailed CycleStatus = "failed"
	// StatusAbsent means the segment is not published yet (or the probe failed)
	StatusAbsent CycleStatus = "absent"
	// StatusDeferred means the segment exists but could not be fetched
	StatusDeferred CycleStatus = "deferred"
	// StatusSkipped means another cycle was already running
	StatusSkipped CycleStatus = "skipped"
)

// CycleResult summarizes one cycle. Only Succeeded drives control flow
type CycleResult struct {
	CycleID     string      `json:"cycle_id"`
	Segment     int64       `json:"segment"`
	Status      CycleStatus `json:"status"`
	Succeeded   bool        `json:"succeeded"`
	Unique      int         `json:"unique"`
	Duplicates  int         `json:"duplicates"`
	Skipped     int         `json:"skipped"`
	Total       int         `json:"total"`
	Batches     int         `json:"batches"`
	BatchesSent int         `json:"batches_sent"`
	Published   time.Time   `json:"published,omitzero"`
	Err         string      `json:"error,omitempty"`
	Started     time.Time   `json:"started"`
	Finished    time.Time   `json:"finished"`
}

// Elapsed is the wall time of the cycle
func (r CycleResult) Elapsed() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Snapshot is the scheduler state exposed to concurrent readers
type Snapshot struct {
	Index      int64        `json:"index"`
	Running    bool         `json:"running"`
	Cycles     int          `json:"cycles"`
	Advanced   int          `json:"advanced"`
	Checkpoint string       `json:"checkpoint,omitempty"`
	Last       *CycleResult `json:"last,omitempty"`
}
