// Package clickhouse appends artifacts to a ClickHouse table through the platform store
package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"indexcrawler/internal/core/artifact"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
	"indexcrawler/internal/platform/store"
)

// DefaultTable is used when no table is configured
const DefaultTable = "maven_artifacts"

// Columns is the insert column order
var Columns = []string{"group_id", "artifact_id", "version", "repository", "last_modified"}

const ddl = `
CREATE TABLE IF NOT EXISTS %s (
	group_id      String,
	artifact_id   String,
	version       String,
	repository    LowCardinality(String),
	last_modified DateTime64(3, 'UTC'),
	ingested_at   DateTime64(3, 'UTC') DEFAULT now64(3)
)
ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (group_id, artifact_id, version, repository)`

// Sink writes each batch as one native insert; a replayed segment collapses on merge
type Sink struct {
	ch          store.Clickhouse
	table       string
	ensureTable bool
}

// New returns a sink over ch. ensureTable creates the table on Open when missing
func New(ch store.Clickhouse, table string, ensureTable bool) *Sink {
	if table == "" {
		table = DefaultTable
	}
	return &Sink{ch: ch, table: table, ensureTable: ensureTable}
}

// ValidTable reports whether name is a plain or db-qualified identifier
func ValidTable(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i, r := range p {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

// Open verifies the seam and optionally creates the table
func (s *Sink) Open(ctx context.Context) error {
	if s.ch == nil {
		return perr.Configf("clickhouse: SERVICE_CLICKHOUSE_DBURL is not configured")
	}
	if !ValidTable(s.table) {
		return perr.Configf("clickhouse: invalid table name %q", s.table)
	}
	if !s.ensureTable {
		return nil
	}
	if err := s.ch.Exec(ctx, fmt.Sprintf(ddl, s.table)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "clickhouse: ensure table %s", s.table)
	}
	return nil
}

// Flush is a no-op; every Send commits its own batch
func (s *Sink) Flush(context.Context) error { return nil }

// Close is a no-op; the store owns the connection
func (s *Sink) Close() error { return nil }

// Send inserts the batch and reports whether it committed
func (s *Sink) Send(ctx context.Context, batch []artifact.Artifact) bool {
	if len(batch) == 0 {
		return true
	}
	if s.ch == nil {
		return false
	}
	rows := make([][]any, 0, len(batch))
	for _, a := range batch {
		rows = append(rows, []any{a.GroupID, a.ArtifactID, a.Version, a.Repository, a.Modified()})
	}
	if err := s.ch.Insert(ctx, s.table, Columns, rows); err != nil {
		logger.C(ctx).Error().Err(err).Str("sink", "clickhouse").Str("table", s.table).Int("batch", len(batch)).Msg("clickhouse insert failed")
		return false
	}
	return true
}
