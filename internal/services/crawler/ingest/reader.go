package ingest

import (
	"indexcrawler/internal/adapters/ingest/mavenindex"
	"indexcrawler/internal/services/crawler/domain"
)

// sourceFactory adapts mavenindex.Open to domain.SourceFactory
type sourceFactory struct{}

// NewSourceFactory returns a factory that opens fetched segment files
func NewSourceFactory() domain.SourceFactory { return sourceFactory{} }

func (sourceFactory) Open(path string) (domain.RecordSource, error) {
	rd, err := mavenindex.Open(path)
	if err != nil {
		return nil, err
	}
	// *mavenindex.Reader already has the RecordSource method set
	return rd, nil
}
