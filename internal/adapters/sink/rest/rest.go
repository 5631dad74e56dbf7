// Package rest posts artifact batches to an HTTP endpoint
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"indexcrawler/internal/core/artifact"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
)

const defaultTimeout = 30 * time.Second

// Sink POSTs each batch as a JSON array; only a 200 response counts as delivered
type Sink struct {
	endpoint string
	client   *http.Client
}

// New returns a sink for endpoint; a non-positive timeout selects the default
func New(endpoint string, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Sink{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Open checks the endpoint is set
func (s *Sink) Open(context.Context) error {
	if s.endpoint == "" {
		return perr.Configf("rest: endpoint is required")
	}
	return nil
}

// Flush is a no-op
func (s *Sink) Flush(context.Context) error { return nil }

// Close releases idle connections
func (s *Sink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Send posts the batch. Transport errors and any status other than 200 are failures
func (s *Sink) Send(ctx context.Context, batch []artifact.Artifact) bool {
	log := logger.C(ctx).With().Str("sink", "rest").Str("endpoint", s.endpoint).Int("batch", len(batch)).Logger()
	if batch == nil {
		batch = []artifact.Artifact{}
	}
	body, err := json.Marshal(batch)
	if err != nil {
		log.Error().Err(err).Msg("rest encode failed")
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("rest request build failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("rest post failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("rest post rejected")
		return false
	}
	return true
}
