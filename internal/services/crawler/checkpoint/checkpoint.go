// Package checkpoint persists the next segment the crawler should attempt.
//
// Every backend stores a set of markers named <N>.index and treats the highest
// surviving marker as the recorded position. Advance writes the new marker first
// and only then removes the others, so a crash between the two steps leaves a
// recoverable state.
package checkpoint

import (
	"context"
	"strconv"
	"strings"

	"indexcrawler/internal/modkit/repokit"
	"indexcrawler/internal/platform/config"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/services/crawler/domain"
)

// Store is the checkpoint port
type Store = domain.CheckpointStore

const (
	markerSuffix = ".index"

	schemeS3 = "s3://"
	schemePG = "pg:"
)

// Deps are the backends Open may draw on
type Deps struct {
	// PG is required for pg: locations
	PG repokit.TxRunner
	// Cfg is the root config; s3 credentials are read from CORE_CHECKPOINT_S3_*
	Cfg config.Conf
}

// Open selects a backend from location:
//
//	""                  no checkpointing (nil Store)
//	s3://bucket/prefix  object store
//	pg:namespace        postgres
//	anything else       local directory
func Open(ctx context.Context, location string, deps Deps) (Store, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, nil
	case strings.HasPrefix(location, schemeS3):
		bucket, prefix, err := ParseS3Location(location)
		if err != nil {
			return nil, err
		}
		return OpenObjectStore(S3FromConfig(deps.Cfg), bucket, prefix)
	case strings.HasPrefix(location, schemePG):
		if deps.PG == nil {
			return nil, perr.Configf("checkpoint: %s needs SERVICE_PGSQL_DBURL", location)
		}
		p := NewPG(deps.PG, strings.TrimPrefix(location, schemePG))
		if err := p.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return NewDir(location), nil
	}
}

func markerName(n int64) string { return strconv.FormatInt(n, 10) + markerSuffix }

// parseMarker returns the segment named by a marker; false for anything else
func parseMarker(name string) (int64, bool) {
	stem, ok := strings.CutSuffix(name, markerSuffix)
	if !ok || stem == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(stem, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// highest folds marker names into the largest valid segment
func highest(names []string) (int64, bool) {
	var (
		hi    int64
		found bool
	)
	for _, name := range names {
		if n, ok := parseMarker(name); ok && (!found || n > hi) {
			hi, found = n, true
		}
	}
	return hi, found
}

func checkNext(next int64) error {
	if next < 0 {
		return perr.InvalidArgf("checkpoint: negative segment %d", next)
	}
	return nil
}
