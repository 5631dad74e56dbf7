package module

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"indexcrawler/internal/adapters/sink"
	chsink "indexcrawler/internal/adapters/sink/clickhouse"
	"indexcrawler/internal/adapters/sink/console"
	"indexcrawler/internal/adapters/sink/queue"
	"indexcrawler/internal/adapters/sink/rest"
	"indexcrawler/internal/modkit"
	"indexcrawler/internal/platform/config"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
	phttp "indexcrawler/internal/platform/net/http"
	kit "indexcrawler/internal/platform/testkit"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New().Prefix("TEST_UNSET_"))
	if o.BatchSize != 50 || o.Interval != time.Hour || o.StartIndex != 0 || o.Sink.Mode != sink.ModeConsole {
		t.Fatalf("defaults = %+v", o)
	}
	if o.Sink.ClientID != queue.DefaultClientID || o.Sink.Table != chsink.DefaultTable {
		t.Fatalf("sink defaults = %+v", o.Sink)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("X_CORE_CRAWLER_START_INDEX", "812")
	t.Setenv("X_CORE_CRAWLER_BATCH_SIZE", "200")
	t.Setenv("X_CORE_CRAWLER_INTERVAL", "15m")
	t.Setenv("X_CORE_SINK_OUTPUT", "kafka")
	t.Setenv("X_CORE_SINK_KAFKA_TOPIC", "maven.artifacts")
	t.Setenv("X_CORE_SINK_KAFKA_BROKERS", "k1:9092, k2:9092")

	o := FromConfig(config.New().Prefix("X_"))
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o.StartIndex != 812 || o.BatchSize != 200 || o.Interval != 15*time.Minute {
		t.Fatalf("crawler options = %+v", o)
	}
	if o.Sink.Mode != sink.ModeQueue || len(o.Sink.Brokers) != 2 {
		t.Fatalf("alias not resolved: %+v", o.Sink)
	}
}

func TestValidate(t *testing.T) {
	base := func() Options { return FromConfig(config.New().Prefix("TEST_UNSET_")) }
	cases := []struct {
		name string
		edit func(o *Options)
		want string
	}{
		{"batch size", func(o *Options) { o.BatchSize = 0 }, "batch_size"},
		{"negative start", func(o *Options) { o.StartIndex = -1 }, "start_index"},
		{"zero interval", func(o *Options) { o.Interval = 0 }, "interval"},
		{"unknown output", func(o *Options) { o.Sink.Mode = "carrier-pigeon" }, "unknown output"},
		{"queue without topic", func(o *Options) {
			o.Sink.Mode, o.Sink.Brokers = "queue", []string{"k:9092"}
		}, "kafka_topic"},
		{"queue without brokers", func(o *Options) { o.Sink.Mode, o.Sink.Topic = "queue", "t" }, "kafka_brokers"},
		{"rest without endpoint", func(o *Options) { o.Sink.Mode = "rest" }, "rest_endpoint"},
		{"bad table", func(o *Options) { o.Sink.Mode, o.Sink.Table = "ch", "x; DROP TABLE y" }, "clickhouse_table"},
		{"bad base url", func(o *Options) { o.BaseURL = "not a url" }, "base_url"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := base()
			c.edit(&o)
			err := o.Validate()
			if !perr.IsCode(err, perr.ErrorCodeConfig) {
				t.Fatalf("Validate = %v", err)
			}
			kit.MustContain(t, err.Error(), c.want)
		})
	}
}

func TestNewSink(t *testing.T) {
	deps := modkit.Deps{}
	cases := []struct {
		so   SinkOptions
		want any
	}{
		{SinkOptions{Mode: "console"}, (*console.Sink)(nil)},
		{SinkOptions{Mode: "std"}, (*console.Sink)(nil)},
		{SinkOptions{Mode: "kafka", Topic: "t", Brokers: []string{"k:9092"}}, (*queue.Sink)(nil)},
		{SinkOptions{Mode: "rest", Endpoint: "http://localhost/artifacts"}, (*rest.Sink)(nil)},
	}
	for _, c := range cases {
		s, err := NewSink(deps, c.so, 50)
		if err != nil {
			t.Fatalf("%s: %v", c.so.Mode, err)
		}
		if got, want := fmt.Sprintf("%T", s), fmt.Sprintf("%T", c.want); got != want {
			t.Fatalf("%s: sink = %s, want %s", c.so.Mode, got, want)
		}
	}

	if _, err := NewSink(deps, SinkOptions{Mode: "clickhouse"}, 50); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("clickhouse without store = %v", err)
	}
}

func TestNew_ResumesFromDirectoryCheckpoint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoint")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	kit.Touch(t, dir, "41.index")

	o := FromConfig(config.New().Prefix("TEST_UNSET_"))
	o.Checkpoint = dir
	o.StartIndex = 7

	m, err := New(context.Background(), modkit.Deps{Log: *logger.Get(), Cfg: config.New()}, o)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Name() != "crawler" || m.Interval() != time.Hour {
		t.Fatalf("module = %s %v", m.Name(), m.Interval())
	}
	if got := m.Scheduler().Index(); got != 41 {
		t.Fatalf("Index = %d, want 41", got)
	}
	ports, ok := m.Ports().(Ports)
	if !ok || ports.History != nil {
		t.Fatalf("ports = %+v", m.Ports())
	}

	srv := phttp.NewServer(":0")
	m.MountRoutes(srv.Router())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/v1/status", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	kit.MustContain(t, rec.Body.String(), `"index":41`)
	kit.MustContain(t, rec.Body.String(), dir)
}

func TestNew_Errors(t *testing.T) {
	o := FromConfig(config.New().Prefix("TEST_UNSET_"))
	o.BatchSize = 0
	if _, err := New(context.Background(), modkit.Deps{}, o); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("invalid options = %v", err)
	}

	o = FromConfig(config.New().Prefix("TEST_UNSET_"))
	o.Checkpoint = "pg:crawler"
	if _, err := New(context.Background(), modkit.Deps{}, o); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("pg checkpoint without store = %v", err)
	}

	o = FromConfig(config.New().Prefix("TEST_UNSET_"))
	o.Sink.Mode = "clickhouse"
	if _, err := New(context.Background(), modkit.Deps{}, o); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("clickhouse without store = %v", err)
	}
}
