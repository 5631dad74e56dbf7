package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "indexcrawler/internal/platform/testkit"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"WARNING", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"", "info"},
		{"  chatty ", "info"},
	}
	for _, c := range cases {
		if got := parseLevel(c.in).String(); got != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_COMPONENT", "crawler")
	t.Setenv("LOG_CALLER", "yes")

	o := FromEnv()
	if o.Level != "debug" || o.Format != "json" {
		t.Fatalf("level/format not lowered: %+v", o)
	}
	if o.Service != "indexcrawler" {
		t.Fatalf("service default = %q", o.Service)
	}
	if o.Component != "crawler" || !o.WithCaller {
		t.Fatalf("unexpected options %+v", o)
	}
}

func TestInit_Named_C_WithCycle(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "svc",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})

	Get().Info().Msg("root-msg")
	Named("sink").Info().Msg("named-msg")

	ctx := WithCycle(context.Background(), "c-1", 42)
	if CycleID(ctx) != "c-1" {
		t.Fatalf("CycleID = %q", CycleID(ctx))
	}
	C(ctx).Info().Msg("cycle-msg")
	C(context.Background()).Info().Msg("bare-msg")

	out := buf.String()
	// Init is process-wide; another test may have won the race to configure it
	if !strings.Contains(out, "root-msg") {
		t.Skip("root logger initialized elsewhere")
	}
	kit.MustContain(t, out, `"component":"sink"`)
	kit.MustContain(t, out, `"cycle_id":"c-1"`)
	kit.MustContain(t, out, `"segment":42`)
	kit.MustContain(t, out, `"build":"test"`)
	kit.MustContain(t, out, "bare-msg")
}

func TestNamed_EmptyReturnsRoot(t *testing.T) {
	if Named("") != Get() {
		t.Fatalf("Named(\"\") should return the root logger")
	}
}
