//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"indexcrawler/internal/modkit/repokit"
	"indexcrawler/internal/platform/store"
	"indexcrawler/internal/services/crawler/domain"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPG(t *testing.T) store.TxRunner {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, _ := c.Host(ctx)
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st.PG
}

func TestLedger_Integration(t *testing.T) {
	db := startPG(t)
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	id := uuid.NewString()
	started := time.Now().UTC().Truncate(time.Millisecond)
	err := repokit.WithTx(ctx, db, NewPG(), func(r domain.LedgerRepo) error {
		if err := r.StartCycle(ctx, id, 7, started); err != nil {
			return err
		}
		return r.FinishCycle(ctx, domain.CycleResult{
			CycleID: id, Segment: 7, Status: domain.StatusOK, Succeeded: true,
			Unique: 10, Total: 11, Batches: 1, BatchesSent: 1,
			Started: started, Finished: started.Add(2 * time.Second),
		})
	})
	if err != nil {
		t.Fatalf("ledger tx: %v", err)
	}

	got, err := NewPG().Bind(db).Recent(ctx, 5)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent = %v, %v", got, err)
	}
	if c := got[0]; c.CycleID != id || c.Status != domain.StatusOK || !c.Published.IsZero() || c.Elapsed() != 2*time.Second {
		t.Fatalf("row = %+v", c)
	}
}
