package ingest

import (
	"indexcrawler/internal/core/artifact"
	"indexcrawler/internal/services/crawler/domain"
)

// coordinateNormalizer is the part of core/normalize the shim needs
type coordinateNormalizer interface {
	Coordinate(group, artifact, version string) (g, a, v string, ok bool)
}

type normalizer struct {
	inner      coordinateNormalizer
	repository string
}

// NewNormalizer builds the entry normalizer; repository stamps every artifact ("" = Maven Central)
func NewNormalizer(inner coordinateNormalizer, repository string) domain.Normalizer {
	if repository == "" {
		repository = artifact.CentralRepository
	}
	return normalizer{inner: inner, repository: repository}
}

// Artifact maps an artifact entry to the canonical record.
// Entries without a coordinate or with an empty part after normalization are unrepresentable
func (n normalizer) Artifact(e domain.Entry) (artifact.Artifact, bool) {
	u, ok := e.Coordinate()
	if !ok {
		return artifact.Artifact{}, false
	}
	g, a, v, ok := n.inner.Coordinate(u.GroupID, u.ArtifactID, u.Version)
	if !ok {
		return artifact.Artifact{}, false
	}
	ts, _ := e.LastModified()
	return artifact.Artifact{GroupID: g, ArtifactID: a, Version: v, Repository: n.repository, Timestamp: ts}, true
}
