// Package artifact defines the canonical record extracted from an index segment
package artifact

import (
	"encoding/json"
	"fmt"
	"time"
)

// CentralRepository is the origin location stamped on artifacts read from Maven Central
const CentralRepository = "https://repo.maven.apache.org/maven2/"

// Identity is the comparable part of an Artifact; two artifacts are duplicates when their identities are equal
type Identity struct {
	GroupID    string
	ArtifactID string
	Version    string
	Repository string
}

// String renders the identity as group:artifact:version
func (id Identity) String() string {
	return fmt.Sprintf("%s:%s:%s", id.GroupID, id.ArtifactID, id.Version)
}

// Artifact is one released package version. Timestamp is epoch millis and is not part of identity
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Repository string
	Timestamp  int64
}

// Key returns the identity of a
func (a Artifact) Key() Identity {
	return Identity{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: a.Version, Repository: a.Repository}
}

// Equal reports identity equality, ignoring the timestamp
func (a Artifact) Equal(b Artifact) bool { return a.Key() == b.Key() }

// Modified returns the timestamp as a UTC time
func (a Artifact) Modified() time.Time { return time.UnixMilli(a.Timestamp).UTC() }

// String renders the coordinate
func (a Artifact) String() string { return a.Key().String() }

// wire is the JSON shape consumers of every sink read
type wire struct {
	ArtifactID string `json:"artifactId"`
	GroupID    string `json:"groupId"`
	Version    string `json:"version"`
	Date       int64  `json:"date"`
	Repository string `json:"artifactRepository"`
}

// MarshalJSON encodes a with the consumer field names
func (a Artifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		ArtifactID: a.ArtifactID,
		GroupID:    a.GroupID,
		Version:    a.Version,
		Date:       a.Timestamp,
		Repository: a.Repository,
	})
}

// UnmarshalJSON decodes the consumer shape
func (a *Artifact) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = Artifact{GroupID: w.GroupID, ArtifactID: w.ArtifactID, Version: w.Version, Repository: w.Repository, Timestamp: w.Date}
	return nil
}
