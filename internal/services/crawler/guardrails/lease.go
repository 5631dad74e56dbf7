package guardrails

import (
	"context"
	"errors"

	"indexcrawler/internal/modkit/repokit"
)

// ErrLeaseHeld signals another crawler instance is working on the same checkpoint namespace
var ErrLeaseHeld = errors.New("crawler: cycle lease already held")

// Lease runs do while holding the cycle lease for a namespace
type Lease func(ctx context.Context, do func(context.Context) error) error

// MakeAdvisoryLease returns a Lease backed by a transaction-scoped Postgres advisory lock keyed on namespace.
// The lock is released when the transaction ends, so a crashed instance never strands it.
// When the lock is taken the lease returns ErrLeaseHeld without running do
func MakeAdvisoryLease(db repokit.TxRunner, namespace string) Lease {
	return func(ctx context.Context, do func(context.Context) error) error {
		var ran bool
		var workErr error
		err := db.Tx(ctx, func(q repokit.Queryer) error {
			var got bool
			if err := q.QueryRow(ctx,
				`SELECT pg_try_advisory_xact_lock(hashtext('indexcrawler:' || $1))`, namespace,
			).Scan(&got); err != nil {
				return err
			}
			if !got {
				return nil
			}
			ran = true
			workErr = do(ctx)
			return nil
		})
		if err != nil {
			return err
		}
		if !ran {
			return ErrLeaseHeld
		}
		return workErr
	}
}
