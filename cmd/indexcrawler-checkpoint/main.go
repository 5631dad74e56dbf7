// Command indexcrawler-checkpoint shows or overrides the recorded crawl position
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"indexcrawler/internal/platform/config"
	"indexcrawler/internal/platform/logger"
	"indexcrawler/internal/platform/store"
	"indexcrawler/internal/services/crawler/checkpoint"
)

func main() {
	root := config.New()
	l := logger.Get()

	var (
		fDir  = flag.String("checkpoint_dir", root.Prefix("CORE_CRAWLER_").MayString("CHECKPOINT_DIR", ""), "checkpoint location: directory, s3://bucket/prefix or pg:namespace")
		fShow = flag.Bool("show", false, "print the recorded segment (default when -set is absent)")
		fSet  = flag.Int64("set", -1, "record N as the next segment to crawl")
	)
	flag.Parse()

	if *fDir == "" {
		l.Fatal().Msg("-checkpoint_dir (or CORE_CRAWLER_CHECKPOINT_DIR) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGFromConfig(root)}, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() { _ = st.Close(context.Background()) }()

	cp, err := checkpoint.Open(ctx, *fDir, checkpoint.Deps{PG: st.PG, Cfg: root})
	if err != nil {
		l.Fatal().Err(err).Str("location", *fDir).Msg("open checkpoint")
	}

	if *fSet >= 0 {
		if err := cp.Advance(ctx, *fSet); err != nil {
			l.Fatal().Err(err).Str("location", cp.Location()).Msg("set checkpoint")
		}
		l.Info().Str("location", cp.Location()).Int64("next", *fSet).Msg("checkpoint set")
		if !*fShow {
			return
		}
	}

	n, ok, err := cp.Highest(ctx)
	if err != nil {
		l.Fatal().Err(err).Str("location", cp.Location()).Msg("read checkpoint")
	}
	if !ok {
		fmt.Fprintf(os.Stdout, "%s: no checkpoint recorded\n", cp.Location())
		return
	}
	fmt.Fprintf(os.Stdout, "%s: next segment %d\n", cp.Location(), n)
}
