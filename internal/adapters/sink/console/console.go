// Package console writes artifacts as JSON lines, one per artifact
package console

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"indexcrawler/internal/core/artifact"
	"indexcrawler/internal/platform/logger"
)

// Sink writes to an io.Writer, stdout by default
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

// New returns a console sink; a nil writer selects stdout
func New(w io.Writer) *Sink {
	if w == nil {
		w = os.Stdout
	}
	return &Sink{w: w, enc: json.NewEncoder(w)}
}

// Open is a no-op
func (s *Sink) Open(context.Context) error { return nil }

// Flush syncs the writer when it supports it
func (s *Sink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close is a no-op; stdout stays open
func (s *Sink) Close() error { return nil }

// Send prints every artifact and always succeeds. Write errors are logged only
func (s *Sink) Send(ctx context.Context, batch []artifact.Artifact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range batch {
		if err := s.enc.Encode(a); err != nil {
			logger.C(ctx).Warn().Err(err).Str("sink", "console").Str("artifact", a.String()).Msg("console write failed")
		}
	}
	return true
}
