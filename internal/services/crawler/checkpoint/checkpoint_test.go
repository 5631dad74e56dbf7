package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"indexcrawler/internal/platform/config"
	perr "indexcrawler/internal/platform/errors"
	kit "indexcrawler/internal/platform/testkit"
)

func TestParseMarker(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0.index", 0, true},
		{"812.index", 812, true},
		{".index", 0, false},
		{"-3.index", 0, false},
		{"abc.index", 0, false},
		{"12.index.tmp", 0, false},
		{"12", 0, false},
		{".checkpoint-123", 0, false},
	}
	for _, c := range cases {
		n, ok := parseMarker(c.in)
		if n != c.want || ok != c.ok {
			t.Fatalf("parseMarker(%q) = %d,%v want %d,%v", c.in, n, ok, c.want, c.ok)
		}
	}
	if n, ok := highest([]string{"3.index", "x.index", "11.index", "7.index"}); n != 11 || !ok {
		t.Fatalf("highest = %d,%v", n, ok)
	}
	if _, ok := highest(nil); ok {
		t.Fatalf("highest(nil) should report no marker")
	}
}

func TestDir_MissingDirectoryIsNoCheckpoint(t *testing.T) {
	d := NewDir(filepath.Join(t.TempDir(), "absent"))
	n, ok, err := d.Highest(context.Background())
	if err != nil || ok || n != 0 {
		t.Fatalf("Highest = %d,%v,%v", n, ok, err)
	}
}

func TestDir_HighestIgnoresJunk(t *testing.T) {
	dir := t.TempDir()
	kit.Touch(t, dir, "4.index", "9.index", "nine.index", "10.idx", "README")
	if err := os.Mkdir(filepath.Join(dir, "99.index"), 0o755); err != nil {
		t.Fatal(err)
	}
	n, ok, err := NewDir(dir).Highest(context.Background())
	if err != nil || !ok || n != 9 {
		t.Fatalf("Highest = %d,%v,%v", n, ok, err)
	}
}

func TestDir_AdvanceLeavesSingleMarker(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	d := NewDir(dir)
	ctx := context.Background()

	for _, next := range []int64{1, 2, 3} {
		if err := d.Advance(ctx, next); err != nil {
			t.Fatalf("Advance(%d): %v", next, err)
		}
	}
	if got := kit.Names(t, dir); !slices.Equal(got, []string{"3.index"}) {
		t.Fatalf("markers = %v", got)
	}

	// stale higher markers and unrelated files
	kit.Touch(t, dir, "40.index", "notes.txt")
	if err := d.Advance(ctx, 5); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := kit.Names(t, dir); !slices.Equal(got, []string{"5.index", "notes.txt"}) {
		t.Fatalf("markers = %v", got)
	}
	if n, ok, _ := d.Highest(ctx); !ok || n != 5 {
		t.Fatalf("Highest = %d,%v", n, ok)
	}
	if err := d.Advance(ctx, -1); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("negative advance = %v", err)
	}
}

func TestDir_AdvanceIntoUnwritablePath(t *testing.T) {
	parent := t.TempDir()
	kit.Touch(t, parent, "file")
	d := NewDir(filepath.Join(parent, "file", "sub"))
	if err := d.Advance(context.Background(), 1); !perr.IsCode(err, perr.ErrorCodeCheckpoint) {
		t.Fatalf("Advance = %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "  ", Deps{})
	if err != nil || s != nil {
		t.Fatalf("blank location = %v,%v", s, err)
	}

	dir := t.TempDir()
	s, err = Open(ctx, dir, Deps{})
	if err != nil {
		t.Fatalf("dir: %v", err)
	}
	if _, ok := s.(*Dir); !ok || s.Location() != dir {
		t.Fatalf("dir store = %T %s", s, s.Location())
	}

	if _, err := Open(ctx, "pg:crawler", Deps{}); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("pg without db = %v", err)
	}

	t.Setenv("CORE_CHECKPOINT_S3_ENDPOINT", "")
	if _, err := Open(ctx, "s3://bucket/crawler", Deps{Cfg: config.New()}); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("s3 without endpoint = %v", err)
	}

	t.Setenv("CORE_CHECKPOINT_S3_ENDPOINT", "localhost:9000")
	t.Setenv("CORE_CHECKPOINT_S3_USE_SSL", "false")
	s, err = Open(ctx, "s3://bucket/crawler/", Deps{Cfg: config.New()})
	if err != nil {
		t.Fatalf("s3: %v", err)
	}
	if s.Location() != "s3://bucket/crawler" {
		t.Fatalf("s3 location = %s", s.Location())
	}
}

func TestParseS3Location(t *testing.T) {
	cases := []struct {
		in, bucket, prefix string
		ok                 bool
	}{
		{"s3://b", "b", "", true},
		{"s3://b/", "b", "", true},
		{"s3://b/a/c/", "b", "a/c", true},
		{"s3:///x", "", "", false},
		{"/var/lib/x", "", "", false},
	}
	for _, c := range cases {
		b, p, err := ParseS3Location(c.in)
		if (err == nil) != c.ok || b != c.bucket || p != c.prefix {
			t.Fatalf("ParseS3Location(%q) = %q,%q,%v", c.in, b, p, err)
		}
	}
}

func TestNewPG_Namespace(t *testing.T) {
	if got := NewPG(nil, " ").Location(); got != "pg:default" {
		t.Fatalf("Location = %s", got)
	}
	if got := NewPG(nil, "mirror-eu").Location(); got != "pg:mirror-eu" {
		t.Fatalf("Location = %s", got)
	}
}
