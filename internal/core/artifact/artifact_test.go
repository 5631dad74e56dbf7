package artifact

import (
	"encoding/json"
	"testing"
)

func TestIdentityIgnoresTimestamp(t *testing.T) {
	a := Artifact{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Version: "2.0.9", Repository: CentralRepository, Timestamp: 1}
	b := a
	b.Timestamp = 99
	if !a.Equal(b) || a.Key() != b.Key() {
		t.Fatalf("timestamp must not affect identity")
	}

	c := a
	c.Repository = "https://example.org/m2/"
	if a.Equal(c) {
		t.Fatalf("repository is part of identity")
	}
	if a.String() != "org.slf4j:slf4j-api:2.0.9" {
		t.Fatalf("String = %q", a.String())
	}
}

func TestWireShape(t *testing.T) {
	a := Artifact{GroupID: "g", ArtifactID: "a", Version: "1", Repository: CentralRepository, Timestamp: 1700000000000}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"artifactId":         "a",
		"groupId":            "g",
		"version":            "1",
		"date":               float64(1700000000000),
		"artifactRepository": CentralRepository,
	}
	if len(m) != len(want) {
		t.Fatalf("keys = %v", m)
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s = %v, want %v", k, m[k], v)
		}
	}

	var back Artifact
	if err := json.Unmarshal(b, &back); err != nil || back != a {
		t.Fatalf("decode = %+v, %v", back, err)
	}
}

func TestModified(t *testing.T) {
	a := Artifact{Timestamp: 1000}
	if a.Modified().Unix() != 1 || a.Modified().Location().String() != "UTC" {
		t.Fatalf("Modified = %v", a.Modified())
	}
}
