package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/core/artifact"
	"indexcrawler/internal/core/normalize"
	"indexcrawler/internal/services/crawler/domain"
	"indexcrawler/internal/services/crawler/ingest"
)

var errRead = errors.New("unexpected end of segment")

func entry(g, a, v string) domain.Entry {
	return domain.Entry{Fields: []mavenindex.Field{
		{Name: mavenindex.FieldUInfo, Value: g + "|" + a + "|" + v + "|NA|jar"},
		{Name: mavenindex.FieldModified, Value: "1700000000000"},
	}}
}

func descriptor() domain.Entry {
	return domain.Entry{Fields: []mavenindex.Field{{Name: mavenindex.FieldDescriptor, Value: "NexusIndex"}}}
}

// uniqueEntries returns n distinct artifact entries
func uniqueEntries(n int) []domain.Entry {
	out := make([]domain.Entry, n)
	for i := range out {
		out[i] = entry("org.example", fmt.Sprintf("lib-%03d", i), "1.0")
	}
	return out
}

type sliceSource struct {
	entries []domain.Entry
	failAt  int // Next returns errRead at this position; -1 disables
	pos     int
	closed  bool
}

func newSource(entries []domain.Entry) *sliceSource {
	return &sliceSource{entries: entries, failAt: -1}
}

func (s *sliceSource) Next() (domain.Entry, error) {
	if s.pos == s.failAt {
		return domain.Entry{}, errRead
	}
	if s.pos >= len(s.entries) {
		return domain.Entry{}, io.EOF
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

func (s *sliceSource) Meta() domain.SourceMeta {
	return domain.SourceMeta{Version: 1, Published: time.UnixMilli(1690000000000).UTC(), Documents: s.pos}
}

func (s *sliceSource) Close() error { s.closed = true; return nil }

type fakeSink struct {
	mu       sync.Mutex
	opens    int
	flushes  int
	closes   int
	batches  [][]artifact.Artifact
	failOn   int // 1-based batch number that returns false; 0 disables
	panicOn  int
	openErr  error
	flushErr error
	block    chan struct{} // when set, Send waits on it
	entered  chan struct{}
}

func (s *fakeSink) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return s.openErr
}

func (s *fakeSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return s.flushErr
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSink) Send(_ context.Context, b []artifact.Artifact) bool {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
	n := len(s.batches)
	if n == s.panicOn {
		panic("sink exploded")
	}
	return n != s.failOn
}

func (s *fakeSink) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

// remote publishes segments [0, published) and writes an empty temp file per download
type remote struct {
	mu        sync.Mutex
	dir       string
	published int64
	probeErr  error
	fetchErr  error
	downloads []string
}

func (r *remote) Exists(_ context.Context, n int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.probeErr != nil {
		return false, r.probeErr
	}
	return n < r.published, nil
}

func (r *remote) Download(_ context.Context, n int64, dir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return "", r.fetchErr
	}
	if dir == "" {
		dir = r.dir
	}
	p := filepath.Join(dir, fmt.Sprintf("segment.%d.gz", n))
	if err := os.WriteFile(p, nil, 0o600); err != nil {
		return "", err
	}
	r.downloads = append(r.downloads, p)
	return p, nil
}

// sources hands out a fresh slice source per open
type sources struct {
	entries []domain.Entry
	openErr error
	opened  []string
}

func (f *sources) Open(path string) (domain.RecordSource, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, path)
	return newSource(f.entries), nil
}

type memCheckpoint struct {
	mu         sync.Mutex
	value      int64
	ok         bool
	readErr    error
	advanceErr error
	advances   []int64
}

func (m *memCheckpoint) Highest(context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.ok, m.readErr
}

func (m *memCheckpoint) Advance(_ context.Context, next int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advances = append(m.advances, next)
	if m.advanceErr != nil {
		return m.advanceErr
	}
	m.value, m.ok = next, true
	return nil
}

func (m *memCheckpoint) Location() string { return "mem" }

func newNormalizer() domain.Normalizer { return ingest.NewNormalizer(normalize.New(), "") }
