package console

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"indexcrawler/internal/core/artifact"
)

func TestSend_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	ctx := context.Background()

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	batch := []artifact.Artifact{
		{GroupID: "g", ArtifactID: "a", Version: "1", Repository: artifact.CentralRepository, Timestamp: 7},
		{GroupID: "g", ArtifactID: "b", Version: "2", Repository: artifact.CentralRepository, Timestamp: 8},
	}
	if !s.Send(ctx, batch) {
		t.Fatalf("console send must succeed")
	}
	if !s.Send(ctx, nil) {
		t.Fatalf("empty batch must succeed")
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d: %q", len(lines), buf.String())
	}
	var got artifact.Artifact
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil || got != batch[1] {
		t.Fatalf("line 2 = %q (%v)", lines[1], err)
	}
	if !strings.Contains(lines[0], `"artifactRepository"`) {
		t.Fatalf("wire keys missing: %s", lines[0])
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, bytes.ErrTooLarge }

func TestSend_WriteErrorStillTrue(t *testing.T) {
	s := New(failingWriter{})
	if !s.Send(context.Background(), []artifact.Artifact{{GroupID: "g"}}) {
		t.Fatalf("console send reports true even when the write fails")
	}
}
