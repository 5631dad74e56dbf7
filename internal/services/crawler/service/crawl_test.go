package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/services/crawler/domain"
)

func TestCrawl_DedupAndBatching(t *testing.T) {
	entries := uniqueEntries(120)
	// duplicates of the first two plus a descriptor and a deletion
	entries = append(entries, entries[0], entries[1], entries[0], descriptor())
	entries = append(entries, domain.Entry{Fields: []mavenindex.Field{{Name: mavenindex.FieldDeleted, Value: "g|a|1|NA|jar"}}})

	src := newSource(entries)
	out := &fakeSink{}
	res := NewCrawler(50, newNormalizer()).Crawl(context.Background(), 7, src, out)

	if !res.Succeeded || res.Status != domain.StatusOK || res.Err != "" {
		t.Fatalf("result = %+v", res)
	}
	if res.Unique != 120 || res.Duplicates != 3 || res.Skipped != 2 || res.Total != 125 {
		t.Fatalf("counts unique=%d dups=%d skipped=%d total=%d", res.Unique, res.Duplicates, res.Skipped, res.Total)
	}
	if res.Batches != 3 || res.BatchesSent != 3 || len(out.batches) != 3 {
		t.Fatalf("batches=%d sent=%d got=%d", res.Batches, res.BatchesSent, len(out.batches))
	}
	for i, want := range []int{50, 50, 20} {
		if len(out.batches[i]) != want {
			t.Fatalf("batch %d size %d, want %d", i, len(out.batches[i]), want)
		}
	}
	// first-seen order survives partitioning
	if out.batches[0][0].ArtifactID != "lib-000" || out.batches[2][19].ArtifactID != "lib-119" {
		t.Fatalf("order broken: %s .. %s", out.batches[0][0].ArtifactID, out.batches[2][19].ArtifactID)
	}
	if out.opens != 1 || out.flushes != 1 || out.closes != 1 {
		t.Fatalf("lifecycle open=%d flush=%d close=%d", out.opens, out.flushes, out.closes)
	}
	if res.Segment != 7 || res.Published.IsZero() || res.Finished.Before(res.Started) {
		t.Fatalf("metadata = %+v", res)
	}
}

func TestCrawl_EmptySegment(t *testing.T) {
	out := &fakeSink{}
	res := NewCrawler(50, newNormalizer()).Crawl(context.Background(), 1, newSource(nil), out)
	if !res.Succeeded || res.Batches != 0 || len(out.batches) != 0 {
		t.Fatalf("empty segment = %+v", res)
	}
	if out.opens != 1 || out.flushes != 1 || out.closes != 1 {
		t.Fatalf("sink lifecycle still runs for an empty segment")
	}
}

func TestCrawl_FailFastOnDispatch(t *testing.T) {
	cases := []struct {
		name string
		sink *fakeSink
	}{
		{"send false", &fakeSink{failOn: 2}},
		{"send panics", &fakeSink{panicOn: 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := NewCrawler(10, newNormalizer()).Crawl(context.Background(), 3, newSource(uniqueEntries(45)), c.sink)
			if res.Succeeded || res.Status != domain.StatusFailed {
				t.Fatalf("dispatch failure must fail the cycle: %+v", res)
			}
			if res.Batches != 5 || res.BatchesSent != 1 || len(c.sink.batches) != 2 {
				t.Fatalf("batches=%d sent=%d attempted=%d", res.Batches, res.BatchesSent, len(c.sink.batches))
			}
			if !strings.Contains(res.Err, "batch 2 of 5") {
				t.Fatalf("err = %q", res.Err)
			}
			if c.sink.flushes != 1 || c.sink.closes != 1 {
				t.Fatalf("flush/close must run on failure")
			}
		})
	}
}

func TestCrawl_ReadErrorDispatchesNothing(t *testing.T) {
	src := newSource(uniqueEntries(10))
	src.failAt = 6
	out := &fakeSink{}
	res := NewCrawler(2, newNormalizer()).Crawl(context.Background(), 9, src, out)

	if res.Succeeded || len(out.batches) != 0 || res.Total != 6 {
		t.Fatalf("read failure = %+v, batches=%d", res, len(out.batches))
	}
	if !strings.Contains(res.Err, errRead.Error()) {
		t.Fatalf("err = %q", res.Err)
	}
	if out.flushes != 1 || out.closes != 1 {
		t.Fatalf("flush/close must run on read failure")
	}
}

func TestCrawl_OpenError(t *testing.T) {
	out := &fakeSink{openErr: errors.New("broker down")}
	res := NewCrawler(2, newNormalizer()).Crawl(context.Background(), 1, newSource(uniqueEntries(3)), out)
	if res.Succeeded || len(out.batches) != 0 || out.closes != 1 || out.flushes != 0 {
		t.Fatalf("open failure: %+v sink=%+v", res, out)
	}
}

func TestCrawl_FlushErrorFailsCycle(t *testing.T) {
	out := &fakeSink{flushErr: errors.New("unacked records")}
	res := NewCrawler(2, newNormalizer()).Crawl(context.Background(), 1, newSource(uniqueEntries(3)), out)
	if res.Succeeded || res.Status != domain.StatusFailed || !strings.Contains(res.Err, "unacked") {
		t.Fatalf("flush failure should fail a delivered cycle: %+v", res)
	}
}

func TestCrawl_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &fakeSink{}
	res := NewCrawler(2, newNormalizer()).Crawl(ctx, 1, newSource(uniqueEntries(3)), out)
	if res.Succeeded || len(out.batches) != 0 {
		t.Fatalf("cancelled crawl = %+v", res)
	}
	if out.closes != 1 {
		t.Fatalf("sink must be closed after cancellation")
	}
}

func TestNewCrawler_DefaultBatch(t *testing.T) {
	if NewCrawler(0, nil).BatchSize != DefaultBatchSize {
		t.Fatalf("default batch size not applied")
	}
}
