package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"asset-pipeline/internal/build"
	"asset-pipeline/internal/config"
	"asset-pipeline/internal/logging"
	"asset-pipeline/internal/pipeline"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	configFile := flag.String("config", "", "Path to a TOML, YAML or JSON config file")
	baseDir := flag.String("base", "", "Project directory holding artwork/ and assets/ (default: auto-detect)")
	srcDir := flag.String("src", "", "Source root (default: <base>/artwork)")
	dstDir := flag.String("dst", "", "Output root (default: <base>/assets)")
	targetList := flag.String("target", "", "Comma separated targets to build (default: all enabled)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	force := flag.Bool("force", false, "Rebuild outputs even when up to date")
	failFast := flag.Bool("fail-fast", false, "Stop at the first failed job")
	watch := flag.Bool("watch", false, "Rebuild when sources change")
	list := flag.Bool("list", false, "List targets and exit")

	flag.Parse()
	logging.ConfigureRuntime("pipeline")

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Error().Err(err).Msg("load config")
			return 1
		}
	}

	// CLI flags override config file
	if err := cfg.Resolve(config.Flags{
		BaseDir: *baseDir,
		SrcRoot: *srcDir,
		DstRoot: *dstDir,
		Workers: *workers,
	}); err != nil {
		log.Error().Err(err).Msg("resolve config")
		return 1
	}

	reg := pipeline.NewRegistry(pipeline.Options{MaxTextureSize: cfg.MaxTextureSize})
	targets, err := pipeline.Build(cfg.Targets, reg)
	if err != nil {
		log.Error().Err(err).Msg("targets")
		return 1
	}

	if *list {
		for _, t := range targets {
			state := "enabled"
			if !t.Enabled {
				state = "disabled"
			}
			fmt.Printf("%-26s %-8s %-7s %-14s %s -> %s\n", t.Name, state, t.Mode, t.Transform.Name, t.Source, t.Dest)
		}
		return 0
	}

	var names []string
	if *targetList != "" {
		for _, n := range strings.Split(*targetList, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	selected, err := pipeline.Select(targets, names)
	if err != nil {
		log.Error().Err(err).Msg("targets")
		return 1
	}
	if len(selected) == 0 {
		fmt.Println("No targets to build.")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildCfg := build.Config{
		SrcRoot:   cfg.SrcRoot,
		DstRoot:   cfg.DstRoot,
		StateFile: cfg.StateFile,
		Workers:   cfg.Workers,
		Force:     *force,
		FailFast:  *failFast,
	}
	log.Info().Str("src", cfg.SrcRoot).Str("dst", cfg.DstRoot).Int("targets", len(selected)).Msg("asset pipeline")

	if *watch {
		err := build.Watch(ctx, buildCfg, selected, func(results []build.Result, err error) {
			report(results, err, 0)
		})
		if err != nil {
			log.Error().Err(err).Msg("watch")
			return 1
		}
		return 0
	}

	start := time.Now()
	results, err := build.Run(ctx, buildCfg, selected)
	return report(results, err, time.Since(start))
}

// report logs a summary of results and returns the process exit code.
func report(results []build.Result, err error, elapsed time.Duration) int {
	built, skipped := 0, 0
	var failures []build.Result
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Success:
			built++
		default:
			failures = append(failures, r)
		}
	}

	ev := log.Info().Int("built", built).Int("up_to_date", skipped).Int("failed", len(failures))
	if elapsed > 0 {
		ev = ev.Dur("took", elapsed)
	}
	ev.Msg("done")

	limit := min(len(failures), 20)
	for _, f := range failures[:limit] {
		log.Error().Str("target", f.Target).Str("output", f.Output).Msg(f.Error)
	}
	if err != nil {
		log.Error().Err(err).Msg("build stopped")
		return 1
	}
	if len(failures) > 0 {
		return 1
	}
	return 0
}
