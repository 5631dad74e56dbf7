// Package service implements the segment crawler and the incremental scheduler
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"indexcrawler/internal/adapters/sink"
	"indexcrawler/internal/core/batch"
	"indexcrawler/internal/core/dedupe"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
	"indexcrawler/internal/services/crawler/domain"
)

// DefaultBatchSize is the number of artifacts per Send
const DefaultBatchSize = 50

const finishTimeout = 30 * time.Second

// Crawler turns one segment into deduplicated batches for a sink
type Crawler struct {
	BatchSize int
	Norm      domain.Normalizer

	now func() time.Time
}

// NewCrawler returns a crawler; a non-positive batch size selects DefaultBatchSize
func NewCrawler(batchSize int, norm domain.Normalizer) *Crawler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Crawler{BatchSize: batchSize, Norm: norm, now: time.Now}
}

// Crawl reads src to the end, deduplicates, and dispatches every batch to out in order.
// It succeeds only when the read completed and every batch was delivered.
// The sink is flushed and closed on every path once opened
func (c *Crawler) Crawl(ctx context.Context, segment int64, src domain.RecordSource, out domain.Sink) (res domain.CycleResult) {
	now := c.now
	if now == nil {
		now = time.Now
	}
	log := logger.C(ctx)
	res = domain.CycleResult{Segment: segment, Status: domain.StatusFailed, Started: now().UTC()}
	defer func() { res.Finished = now().UTC() }()

	fail := func(err error, msg string) {
		res.Succeeded = false
		res.Status = domain.StatusFailed
		res.Err = err.Error()
		log.Error().Err(err).Str("code", perr.CodeOf(err).String()).Msg(msg)
	}

	if err := sink.Guard("open", func() error { return out.Open(ctx) }); err != nil {
		fail(err, "crawl: sink open failed")
		_ = sink.Guard("close", out.Close)
		return res
	}
	defer func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
		defer cancel()
		if err := sink.Guard("flush", func() error { return out.Flush(fctx) }); err != nil && res.Succeeded {
			fail(err, "crawl: sink flush failed")
		}
		if err := sink.Guard("close", out.Close); err != nil {
			log.Warn().Err(err).Msg("crawl: sink close failed")
		}
	}()

	set := dedupe.New(0)
	for {
		if err := ctx.Err(); err != nil {
			fail(perr.Wrap(err, perr.ErrorCodeUnavailable, "crawl: cancelled while reading"), "crawl: aborted")
			return res
		}
		e, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fail(err, "crawl: segment read failed")
			return res
		}
		res.Total++

		a, ok := c.Norm.Artifact(e)
		if !ok {
			res.Skipped++
			log.Warn().Int("fields", len(e.Fields)).Msg("crawl: entry has no usable coordinate; skipping")
			continue
		}
		set.Add(a)
	}
	res.Unique = set.Len()
	res.Duplicates = set.Duplicates()
	res.Published = src.Meta().Published

	batches := batch.Partition(set.Items(), c.BatchSize)
	res.Batches = len(batches)
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			fail(perr.Wrap(err, perr.ErrorCodeUnavailable, "crawl: cancelled while dispatching"), "crawl: aborted")
			return res
		}
		if !sink.SafeSend(ctx, out, b) {
			fail(sink.DispatchError(i, len(batches)), "crawl: batch not delivered; abandoning segment")
			return res
		}
		res.BatchesSent++
	}

	res.Succeeded = true
	res.Status = domain.StatusOK
	ev := log.Info()
	if !res.Published.IsZero() {
		ev = ev.Time("published", res.Published)
	}
	ev.Int("duplicates", res.Duplicates).
		Int("unique", res.Unique).
		Int("total", res.Total).
		Int("skipped", res.Skipped).
		Int("batches", res.Batches).
		Msg("crawl: finished")
	return res
}
