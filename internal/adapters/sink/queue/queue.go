// Package queue publishes artifacts to a Kafka topic with franz-go
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"indexcrawler/internal/core/artifact"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	// DefaultClientID identifies the crawler to the brokers
	DefaultClientID = "IncrementalMavenCrawler"
	// DefaultLinger is how long the producer waits to fill a record batch
	DefaultLinger = time.Second
)

// Options configures the producer
type Options struct {
	Topic    string
	Brokers  []string
	ClientID string
	// BatchSize bounds the records buffered by the client
	BatchSize int
	Linger    time.Duration
}

// producer is the part of *kgo.Client the sink uses
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

var newProducer = func(opts ...kgo.Opt) (producer, error) {
	c, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Sink produces one record per artifact; a batch succeeds only when every record is acknowledged
type Sink struct {
	opts   Options
	mu     sync.Mutex
	client producer
}

// New returns an unopened queue sink
func New(o Options) *Sink {
	if o.ClientID == "" {
		o.ClientID = DefaultClientID
	}
	if o.Linger <= 0 {
		o.Linger = DefaultLinger
	}
	o.BatchSize = max(o.BatchSize, 1)
	return &Sink{opts: o}
}

// Open creates the client. Calling Open on an open sink is a no-op
func (s *Sink) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}
	if s.opts.Topic == "" || len(s.opts.Brokers) == 0 {
		return perr.Configf("queue: topic and brokers are required")
	}
	c, err := newProducer(
		kgo.ClientID(s.opts.ClientID),
		kgo.SeedBrokers(s.opts.Brokers...),
		kgo.DefaultProduceTopic(s.opts.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(s.opts.Linger),
		kgo.MaxBufferedRecords(s.opts.BatchSize),
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeConfig, "queue: new client")
	}
	s.client = c
	return nil
}

// Send publishes every artifact asynchronously and waits for all promises
func (s *Sink) Send(ctx context.Context, batch []artifact.Artifact) bool {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	log := logger.C(ctx).With().Str("sink", "queue").Str("topic", s.opts.Topic).Logger()
	if c == nil {
		log.Error().Msg("queue send before open")
		return false
	}

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed int
		first  error
	)
	for _, a := range batch {
		val, err := json.Marshal(a)
		if err != nil {
			log.Error().Err(err).Str("artifact", a.String()).Msg("queue encode failed")
			failMu.Lock()
			failed++
			failMu.Unlock()
			continue
		}
		wg.Add(1)
		c.Produce(ctx, &kgo.Record{Topic: s.opts.Topic, Value: val, Timestamp: a.Modified()}, func(_ *kgo.Record, err error) {
			defer wg.Done()
			if err == nil {
				return
			}
			failMu.Lock()
			failed++
			if first == nil {
				first = err
			}
			failMu.Unlock()
		})
	}
	wg.Wait()

	if failed > 0 {
		log.Error().Err(first).Int("failed", failed).Int("batch", len(batch)).Msg("queue batch not acknowledged")
		return false
	}
	return true
}

// Flush waits for buffered records
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	if err := c.Flush(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "queue: flush")
	}
	return nil
}

// Close shuts the client down; the sink can be opened again
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	return nil
}
