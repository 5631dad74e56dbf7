// Package module wires the incremental segment crawler
package module

import (
	"context"
	"os"
	"time"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/adapters/sink"
	chsink "indexcrawler/internal/adapters/sink/clickhouse"
	"indexcrawler/internal/adapters/sink/console"
	"indexcrawler/internal/adapters/sink/queue"
	"indexcrawler/internal/adapters/sink/rest"
	"indexcrawler/internal/core/normalize"
	"indexcrawler/internal/modkit"
	"indexcrawler/internal/modkit/repokit"
	perr "indexcrawler/internal/platform/errors"
	phttp "indexcrawler/internal/platform/net/http"
	"indexcrawler/internal/services/crawler/checkpoint"
	"indexcrawler/internal/services/crawler/domain"
	"indexcrawler/internal/services/crawler/guardrails"
	crawlhttp "indexcrawler/internal/services/crawler/http"
	"indexcrawler/internal/services/crawler/ingest"
	"indexcrawler/internal/services/crawler/repo"
	"indexcrawler/internal/services/crawler/service"
)

// Ports defines the crawler module ports
type Ports struct {
	Scheduler domain.SchedulerPort
	// History is nil when the ledger is disabled
	History crawlhttp.History
}

// Module implements modkit.Module for the crawler
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New validates opts, opens the checkpoint store and builds the scheduler.
// Every error here is a startup error
func New(ctx context.Context, deps modkit.Deps, opts Options) (*Module, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out, err := NewSink(deps, opts.Sink, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	cp, err := checkpoint.Open(ctx, opts.Checkpoint, checkpoint.Deps{PG: deps.PG, Cfg: deps.Cfg})
	if err != nil {
		return nil, err
	}

	remote := ingest.NewRemote(mavenindex.NewHTTPFetcher(opts.BaseURL, 0))
	sd := service.Deps{
		Crawler:    service.NewCrawler(opts.BatchSize, ingest.NewNormalizer(normalize.New(), opts.Repository)),
		Prober:     remote,
		Fetcher:    remote,
		Sources:    ingest.NewSourceFactory(),
		Sink:       out,
		Checkpoint: cp,
	}

	var hist crawlhttp.History
	if deps.PG != nil && opts.Ledger {
		if err := repo.EnsureSchema(ctx, deps.PG); err != nil {
			return nil, perr.FromPostgres(err, "crawler: ledger schema")
		}
		sd.DB, sd.Ledger = deps.PG, repo.NewPG()
		hist = ledgerReader{db: deps.PG}
	}
	if deps.PG != nil && opts.Leases {
		ns := "default"
		if cp != nil {
			ns = cp.Location()
		}
		sd.Lease = guardrails.MakeAdvisoryLease(deps.PG, ns)
	}

	sched, err := service.NewScheduler(ctx, sd, service.Config{
		StartIndex: opts.StartIndex,
		TempDir:    opts.TempDir,
		Timeouts: guardrails.Timeouts{
			Cycle:      opts.CycleTimeout,
			Probe:      opts.ProbeTimeout,
			Fetch:      opts.FetchTimeout,
			Checkpoint: opts.CheckpointTimeout,
		},
	})
	if err != nil {
		return nil, err
	}

	deps.Log.Info().
		Str("output", opts.Sink.Mode.String()).
		Int("batch_size", opts.BatchSize).
		Dur("interval", opts.Interval).
		Bool("ledger", hist != nil).
		Bool("lease", sd.Lease != nil).
		Msg("crawler: module ready")

	return &Module{deps: deps, opts: opts, ports: Ports{Scheduler: sched, History: hist}}, nil
}

// NewSink builds the sink selected by so.Mode
func NewSink(deps modkit.Deps, so SinkOptions, batchSize int) (sink.Sink, error) {
	mode, err := sink.ParseMode(string(so.Mode))
	if err != nil {
		return nil, err
	}
	switch mode {
	case sink.ModeQueue:
		return queue.New(queue.Options{
			Topic:     so.Topic,
			Brokers:   so.Brokers,
			ClientID:  so.ClientID,
			BatchSize: batchSize,
			Linger:    so.Linger,
		}), nil
	case sink.ModeHTTP:
		return rest.New(so.Endpoint, so.HTTPTimeout), nil
	case sink.ModeClickhouse:
		if deps.CH == nil {
			return nil, perr.Configf("crawler: clickhouse output needs SERVICE_CLICKHOUSE_DBURL")
		}
		return chsink.New(deps.CH, so.Table, so.EnsureTable), nil
	default:
		return console.New(os.Stdout), nil
	}
}

// Name returns the module name
func (m *Module) Name() string { return "crawler" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Scheduler returns the scheduler port
func (m *Module) Scheduler() domain.SchedulerPort { return m.ports.Scheduler }

// Interval returns the configured tick interval
func (m *Module) Interval() time.Duration { return m.opts.Interval }

// MountRoutes mounts the status surface
func (m *Module) MountRoutes(r phttp.Router) {
	crawlhttp.Register(r, m.ports.Scheduler, m.ports.History)
}

// ledgerReader reads recent cycles outside any transaction
type ledgerReader struct{ db repokit.Queryer }

func (l ledgerReader) Recent(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	return repo.NewPG().Bind(l.db).Recent(ctx, limit)
}
