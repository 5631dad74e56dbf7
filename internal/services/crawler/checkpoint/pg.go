package checkpoint

import (
	"context"
	"strings"

	"indexcrawler/internal/modkit/repokit"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/store"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS crawl_checkpoints (
	namespace  text        NOT NULL,
	segment    bigint      NOT NULL CHECK (segment >= 0),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, segment)
)`

// DefaultNamespace is used for a bare "pg:" location
const DefaultNamespace = "default"

// PG keeps markers as rows of crawl_checkpoints, one namespace per crawler deployment
type PG struct {
	db repokit.TxRunner
	ns string
}

var _ Store = (*PG)(nil)

// NewPG returns a postgres store for namespace
func NewPG(db repokit.TxRunner, namespace string) *PG {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = DefaultNamespace
	}
	return &PG{db: db, ns: ns}
}

// Location returns pg:<namespace>
func (p *PG) Location() string { return schemePG + p.ns }

// EnsureSchema creates the checkpoint table when it is missing
func (p *PG) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, pgSchema); err != nil {
		return perr.Wrap(perr.FromPostgres(err, "create crawl_checkpoints"), perr.ErrorCodeCheckpoint, "checkpoint: schema")
	}
	return nil
}

// Highest returns the largest segment in the namespace. A missing table is no checkpoint
func (p *PG) Highest(ctx context.Context) (int64, bool, error) {
	hi, err := store.Scalar[*int64](ctx, p.db, `SELECT max(segment) FROM crawl_checkpoints WHERE namespace = $1`, p.ns)
	switch {
	case perr.IsUndefinedTable(err):
		return 0, false, nil
	case err != nil:
		return 0, false, perr.Wrap(perr.FromPostgres(err, "select checkpoint"), perr.ErrorCodeCheckpoint, "checkpoint: read "+p.Location())
	case hi == nil:
		return 0, false, nil
	}
	return *hi, true, nil
}

// Advance replaces the namespace rows with next in one transaction
func (p *PG) Advance(ctx context.Context, next int64) error {
	if err := checkNext(next); err != nil {
		return err
	}
	err := p.db.Tx(ctx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, `DELETE FROM crawl_checkpoints WHERE namespace = $1`, p.ns); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `INSERT INTO crawl_checkpoints (namespace, segment) VALUES ($1, $2)`, p.ns, next)
		return err
	})
	if err != nil {
		return perr.Wrap(perr.FromPostgres(err, "replace checkpoint"), perr.ErrorCodeCheckpoint, "checkpoint: advance "+p.Location())
	}
	return nil
}
