// Package ingest holds adapter shims for the crawler's source ports
package ingest

import (
	"context"

	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/services/crawler/domain"
)

// Remote is both the probe and the fetcher of segments
type Remote interface {
	domain.Prober
	domain.Fetcher
}

// remote implements domain.Prober and domain.Fetcher over the segment HTTP fetcher
type remote struct {
	f *mavenindex.HTTPFetcher
}

// NewRemote builds the probe/fetch pair for the segment location base ("" = Maven Central)
func NewRemote(f *mavenindex.HTTPFetcher) Remote {
	return &remote{f: f}
}

func (r *remote) Exists(ctx context.Context, segment int64) (bool, error) {
	return r.f.Exists(ctx, segment)
}

func (r *remote) Download(ctx context.Context, segment int64, dir string) (string, error) {
	return r.f.Download(ctx, segment, dir)
}
