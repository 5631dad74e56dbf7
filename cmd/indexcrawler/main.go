// Command indexcrawler follows the Maven Central incremental index and forwards every
// newly published artifact to the configured sink
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"indexcrawler/internal/adapters/sink"
	"indexcrawler/internal/core/version"
	"indexcrawler/internal/modkit"
	"indexcrawler/internal/platform/config"
	"indexcrawler/internal/platform/logger"
	phttp "indexcrawler/internal/platform/net/http"
	"indexcrawler/internal/platform/net/middleware"
	"indexcrawler/internal/platform/store"
	crawlmod "indexcrawler/internal/services/crawler/module"

	"github.com/go-chi/chi/v5"
)

// flagEnv maps command line flags onto the env keys the module reads
var flagEnv = map[string]string{
	"start_index":      "CORE_CRAWLER_START_INDEX",
	"batch_size":       "CORE_CRAWLER_BATCH_SIZE",
	"interval":         "CORE_CRAWLER_INTERVAL",
	"checkpoint_dir":   "CORE_CRAWLER_CHECKPOINT_DIR",
	"output":           "CORE_SINK_OUTPUT",
	"kafka_topic":      "CORE_SINK_KAFKA_TOPIC",
	"kafka_brokers":    "CORE_SINK_KAFKA_BROKERS",
	"rest_endpoint":    "CORE_SINK_REST_ENDPOINT",
	"clickhouse_table": "CORE_SINK_CLICKHOUSE_TABLE",
	"status_addr":      "CORE_CRAWLER_STATUS_ADDR",
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	_ = flag.Int64("start_index", 0, "first segment to crawl when no higher checkpoint exists")
	_ = flag.Int("batch_size", 50, "artifacts per sink batch")
	_ = flag.Duration("interval", 0, "time between cycles (default 1h)")
	_ = flag.String("checkpoint_dir", "", "checkpoint location: directory, s3://bucket/prefix or pg:namespace (empty disables)")
	_ = flag.String("output", "console", "sink: "+strings.Join(sink.ModeNames(), " | "))
	_ = flag.String("kafka_topic", "", "topic for -output queue")
	_ = flag.String("kafka_brokers", "", "comma separated brokers for -output queue")
	_ = flag.String("rest_endpoint", "", "endpoint for -output http")
	_ = flag.String("clickhouse_table", "", "table for -output clickhouse")
	_ = flag.String("status_addr", "", "listen address of the status endpoint, e.g. :8080 (empty disables)")
	fOnce := flag.Bool("once", false, "run a single cycle and exit")
	fVersion := flag.Bool("version", false, "print the build and exit")
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info("indexcrawler"))
		return
	}

	// only flags given on the command line override env
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagEnv[f.Name]; ok {
			mustSetEnv(key, f.Value.String())
		}
	})

	root := config.New()
	l := logger.Get()
	l.Info().Str("build", version.Info("indexcrawler").String()).Msg("starting")

	// runs after every other deferred cleanup
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGFromConfig(root),
		CH: store.CHFromConfig(root, "crawler"),
	}, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		l.Fatal().Err(err).Msg("store not reachable")
	}

	m, err := crawlmod.New(ctx, modkit.FromStore(root, *l, st), crawlmod.FromConfig(root))
	if err != nil {
		l.Fatal().Err(err).Msg("crawler configuration invalid")
	}
	sched := m.Scheduler()

	if *fOnce {
		res := sched.RunOnce(ctx)
		l.Info().
			Int64("segment", res.Segment).
			Str("status", string(res.Status)).
			Dur("elapsed", res.Elapsed()).
			Int64("next", sched.Index()).
			Msg("single cycle done")
		if !res.Succeeded {
			exitCode = 1
		}
		return
	}

	errc := make(chan error, 2)
	statusCfg := root.Prefix("CORE_CRAWLER_")
	if addr := statusCfg.MayString("STATUS_ADDR", ""); addr != "" {
		srv := phttp.NewServer(addr, func(mux *chi.Mux) {
			mux.Use(middleware.Heartbeat("/ping"))
			mux.Use(middleware.Defaults()...)
			if origins := statusCfg.MayCSV("STATUS_CORS_ORIGINS", nil); len(origins) > 0 {
				mux.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins, MaxAge: 300}))
			}
		})
		m.MountRoutes(srv.Router())
		go func() {
			if err := srv.Run(ctx); err != nil {
				errc <- fmt.Errorf("status server: %w", err)
			}
		}()
	}
	go func() { errc <- sched.Run(ctx, m.Interval()) }()

	err = <-errc
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("crawler stopped")
	}
	l.Info().Int64("next", sched.Index()).Msg("crawler stopped")
}
