package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"indexcrawler/internal/modkit/repokit"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
	"indexcrawler/internal/services/crawler/domain"
	"indexcrawler/internal/services/crawler/guardrails"

	"github.com/google/uuid"
)

// Config holds the scheduler knobs
type Config struct {
	// StartIndex is the first segment when no checkpoint is recorded, or when it is higher than the checkpoint
	StartIndex int64
	// TempDir receives downloaded segments; "" = os.TempDir
	TempDir  string
	Timeouts guardrails.Timeouts
}

// Deps are the ports the scheduler drives. Checkpoint, Ledger and Lease are optional
type Deps struct {
	Crawler    *Crawler
	Prober     domain.Prober
	Fetcher    domain.Fetcher
	Sources    domain.SourceFactory
	Sink       domain.Sink
	Checkpoint domain.CheckpointStore

	// Ledger records cycles when DB is set
	DB     repokit.TxRunner
	Ledger repokit.Binder[domain.LedgerRepo]

	Lease guardrails.Lease
}

// Scheduler owns the current segment index and runs one cycle at a time
type Scheduler struct {
	deps Deps
	cfg  Config

	run sync.Mutex // held for the duration of a cycle

	mu       sync.RWMutex
	index    int64
	running  bool
	cycles   int
	advanced int
	last     *domain.CycleResult

	newID func() string
	now   func() time.Time
}

var _ domain.SchedulerPort = (*Scheduler)(nil)

// NewScheduler resolves the start index from the checkpoint store, if any.
// A checkpoint read error is a startup error
func NewScheduler(ctx context.Context, deps Deps, cfg Config) (*Scheduler, error) {
	switch {
	case deps.Crawler == nil:
		return nil, perr.Configf("scheduler: crawler is required")
	case deps.Prober == nil || deps.Fetcher == nil || deps.Sources == nil:
		return nil, perr.Configf("scheduler: prober, fetcher and source factory are required")
	case deps.Sink == nil:
		return nil, perr.Configf("scheduler: sink is required")
	case cfg.StartIndex < 0:
		return nil, perr.InvalidArgf("scheduler: negative start index %d", cfg.StartIndex)
	}

	s := &Scheduler{deps: deps, cfg: cfg, index: cfg.StartIndex, newID: uuid.NewString, now: time.Now}

	log := logger.Named("scheduler")
	if deps.Checkpoint != nil {
		hi, ok, err := deps.Checkpoint.Highest(ctx)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeCheckpoint, "scheduler: read checkpoint at %s", deps.Checkpoint.Location())
		}
		if ok && hi > s.index {
			s.index = hi
		}
		log.Info().
			Str("checkpoint", deps.Checkpoint.Location()).
			Bool("recorded", ok).
			Int64("recorded_index", hi).
			Int64("start_index", cfg.StartIndex).
			Int64("index", s.index).
			Msg("scheduler: resumed")
	} else {
		log.Info().Int64("index", s.index).Msg("scheduler: starting without checkpoint")
	}
	return s, nil
}

// Index returns the next segment to attempt
func (s *Scheduler) Index() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Snapshot returns a copy of the scheduler state
func (s *Scheduler) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Snapshot{Index: s.index, Running: s.running, Cycles: s.cycles, Advanced: s.advanced}
	if s.deps.Checkpoint != nil {
		snap.Checkpoint = s.deps.Checkpoint.Location()
	}
	if s.last != nil {
		cp := *s.last
		snap.Last = &cp
	}
	return snap
}

// Run executes a cycle immediately and then on every tick until ctx is done.
// Cycles run on this goroutine, so ticks that fire during a long cycle collapse into one
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return perr.InvalidArgf("scheduler: interval must be positive, got %s", interval)
	}
	log := logger.Named("scheduler")
	log.Info().Dur("interval", interval).Int64("index", s.Index()).Msg("scheduler: loop started")

	s.RunOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int64("index", s.Index()).Msg("scheduler: loop stopped")
			return ctx.Err()
		case <-t.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one probe, fetch, crawl and checkpoint cycle for the current index.
// A concurrent caller gets a skipped result instead of a second cycle
func (s *Scheduler) RunOnce(ctx context.Context) domain.CycleResult {
	if !s.run.TryLock() {
		now := s.now().UTC()
		return domain.CycleResult{Segment: s.Index(), Status: domain.StatusSkipped, Started: now, Finished: now}
	}
	defer s.run.Unlock()

	idx := s.Index()
	id := s.newID()
	ctx = logger.WithCycle(ctx, id, idx)
	s.setRunning(true)
	defer s.setRunning(false)

	cctx, cancel := guardrails.WithCycle(ctx, s.cfg.Timeouts)
	defer cancel()

	var res domain.CycleResult
	if s.deps.Lease != nil {
		ran := false
		err := s.deps.Lease(cctx, func(lctx context.Context) error {
			ran = true
			res = s.cycle(lctx, id, idx)
			return nil
		})
		switch {
		case err != nil && ran:
			logger.C(ctx).Warn().Err(err).Msg("scheduler: lease release failed after cycle")
		case err != nil:
			now := s.now().UTC()
			res = domain.CycleResult{CycleID: id, Segment: idx, Status: domain.StatusSkipped, Err: err.Error(), Started: now, Finished: now}
			if !errors.Is(err, guardrails.ErrLeaseHeld) {
				res.Status = domain.StatusDeferred
				logger.C(ctx).Warn().Err(err).Msg("scheduler: lease unavailable; deferring")
			} else {
				logger.C(ctx).Info().Msg("scheduler: another instance holds the lease; skipping")
			}
		}
	} else {
		res = s.cycle(cctx, id, idx)
	}

	s.mu.Lock()
	s.cycles++
	s.last = &res
	s.mu.Unlock()
	return res
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// cycle runs the state machine for segment idx; only a successful crawl moves the index
func (s *Scheduler) cycle(ctx context.Context, id string, idx int64) (res domain.CycleResult) {
	log := logger.C(ctx)
	tos := s.cfg.Timeouts
	res = domain.CycleResult{CycleID: id, Segment: idx, Started: s.now().UTC()}
	defer func() {
		if res.Finished.IsZero() {
			res.Finished = s.now().UTC()
		}
	}()

	// Probing
	pctx, pcancel := guardrails.ForProbe(ctx, tos)
	exists, err := s.deps.Prober.Exists(pctx, idx)
	pcancel()
	if err != nil {
		res.Status = domain.StatusAbsent
		res.Err = err.Error()
		log.Warn().Err(err).Msg("scheduler: probe failed; will retry next tick")
		return res
	}
	if !exists {
		res.Status = domain.StatusAbsent
		log.Info().Msg("scheduler: segment not published yet")
		return res
	}

	s.ledgerStart(ctx, id, idx, res.Started)
	defer func() { s.ledgerFinish(ctx, res) }()

	// Fetching
	fctx, fcancel := guardrails.ForFetch(ctx, tos)
	path, err := s.deps.Fetcher.Download(fctx, idx, s.cfg.TempDir)
	fcancel()
	if err != nil {
		res.Status = domain.StatusDeferred
		res.Err = err.Error()
		log.Error().Err(err).Msg("scheduler: fetch failed; will retry next tick")
		return res
	}
	defer func() {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			log.Warn().Err(rerr).Str("path", path).Msg("scheduler: temp segment not removed")
		}
	}()

	src, err := s.deps.Sources.Open(path)
	if err != nil {
		res.Status = domain.StatusFailed
		res.Err = err.Error()
		log.Error().Err(err).Msg("scheduler: segment unreadable")
		return res
	}
	defer func() { _ = src.Close() }()

	// Crawling
	cr := s.deps.Crawler.Crawl(ctx, idx, src, s.deps.Sink)
	cr.CycleID, cr.Started = id, res.Started
	res = cr
	if !res.Succeeded {
		log.Warn().Str("error", res.Err).Msg("scheduler: cycle failed; index retained")
		return res
	}

	// CheckpointAdvance
	next := idx + 1
	s.mu.Lock()
	s.index = next
	s.advanced++
	s.mu.Unlock()

	if s.deps.Checkpoint != nil {
		cpctx, cpcancel := guardrails.ForCheckpoint(ctx, tos)
		err := s.deps.Checkpoint.Advance(cpctx, next)
		cpcancel()
		if err != nil {
			log.Error().
				Err(perr.Wrap(err, perr.ErrorCodeCheckpoint, "scheduler: advance checkpoint")).
				Int64("next", next).
				Str("checkpoint", s.deps.Checkpoint.Location()).
				Msg("scheduler: checkpoint not persisted; continuing in memory")
		}
	}
	log.Info().Int64("next", next).Dur("elapsed", s.now().Sub(res.Started)).Msg("scheduler: segment complete")
	return res
}

func (s *Scheduler) ledgerStart(ctx context.Context, id string, idx int64, started time.Time) {
	if s.deps.DB == nil || s.deps.Ledger == nil {
		return
	}
	lctx, cancel := guardrails.ForCheckpoint(ctx, s.cfg.Timeouts)
	defer cancel()
	err := repokit.WithTx(lctx, s.deps.DB, s.deps.Ledger, func(r domain.LedgerRepo) error {
		return r.StartCycle(lctx, id, idx, started)
	})
	if err != nil {
		logger.C(ctx).Warn().Err(perr.FromPostgres(err, "ledger: start cycle")).Msg("scheduler: ledger write failed")
	}
}

func (s *Scheduler) ledgerFinish(ctx context.Context, res domain.CycleResult) {
	if s.deps.DB == nil || s.deps.Ledger == nil {
		return
	}
	if res.Finished.IsZero() {
		res.Finished = s.now().UTC()
	}
	lctx, cancel := guardrails.ForCheckpoint(ctx, s.cfg.Timeouts)
	defer cancel()
	err := repokit.WithTx(lctx, s.deps.DB, s.deps.Ledger, func(r domain.LedgerRepo) error {
		return r.FinishCycle(lctx, res)
	})
	if err != nil {
		logger.C(ctx).Warn().Err(perr.FromPostgres(err, "ledger: finish cycle")).Msg("scheduler: ledger write failed")
	}
}
