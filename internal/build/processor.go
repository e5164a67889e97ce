package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"asset-pipeline/internal/pipeline"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds the roots and switches for a build run.
type Config struct {
	SrcRoot   string
	DstRoot   string
	StateFile string
	Workers   int
	Force     bool
	FailFast  bool
}

// Result holds the outcome of one job.
type Result struct {
	Target   string        `json:"target"`
	Output   string        `json:"output,omitempty"`
	Sources  int           `json:"sources"`
	Skipped  bool          `json:"skipped,omitempty"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type job struct {
	target      pipeline.Target
	sources     []pipeline.Source
	output      string
	fingerprint string
}

// Run expands targets into jobs and builds them on a worker pool. Jobs
// whose fingerprint matches the saved build state and whose output still
// exists are skipped unless cfg.Force is set. One Result is returned per
// job, plus one per target whose sources could not be listed. The returned
// error is non-nil only when the run was cut short, by ctx or by the first
// failure under cfg.FailFast.
func Run(ctx context.Context, cfg Config, targets []pipeline.Target) ([]Result, error) {
	state, err := LoadState(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	var results []Result
	var jobs []job
	planned := make(map[string]bool)
	listed := make(map[string]bool)
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		tjobs, err := plan(cfg, t)
		if err != nil {
			log.Error().Err(err).Str("target", t.Name).Msg("plan target")
			results = append(results, Result{Target: t.Name, Error: err.Error()})
			if cfg.FailFast {
				return results, err
			}
			continue
		}
		listed[t.Name] = true
		for _, j := range tjobs {
			planned[j.output] = true
			if !cfg.Force && state.Fresh(j.output, j.fingerprint, cfg.DstRoot) {
				results = append(results, Result{
					Target:  t.Name,
					Output:  j.output,
					Sources: len(j.sources),
					Skipped: true,
					Success: true,
				})
				continue
			}
			jobs = append(jobs, j)
		}
	}

	pruneStale(cfg, state, listed, planned)

	skipped := len(results)
	if len(jobs) > 0 {
		log.Info().Int("jobs", len(jobs)).Int("up_to_date", skipped).Int("workers", cfg.Workers).Msg("build started")
	}

	built, runErr := runJobs(ctx, cfg, jobs, state)
	results = append(results, built...)

	if err := state.Save(cfg.StateFile); err != nil {
		return results, err
	}
	if err := WriteManifest(filepath.Join(cfg.DstRoot, "manifest.json"), results); err != nil {
		return results, err
	}
	return results, runErr
}

func plan(cfg Config, t pipeline.Target) ([]job, error) {
	sources, err := t.Source.List(cfg.SrcRoot)
	if err != nil {
		return nil, err
	}
	if t.Mode != pipeline.ModeMap {
		out := t.Output(pipeline.Source{})
		return []job{{target: t, sources: sources, output: out, fingerprint: Fingerprint(t, sources)}}, nil
	}
	jobs := make([]job, len(sources))
	from := make(map[string]string, len(sources))
	for i, src := range sources {
		out := t.Output(src)
		if prev, dup := from[out]; dup {
			return nil, fmt.Errorf("build: %s and %s both produce %s", prev, src.Rel, out)
		}
		from[out] = src.Rel
		one := sources[i : i+1]
		jobs[i] = job{target: t, sources: one, output: out, fingerprint: Fingerprint(t, one)}
	}
	return jobs, nil
}

// pruneStale removes outputs that listed targets built earlier but no
// longer produce, such as outputs of deleted sources.
func pruneStale(cfg Config, state *State, listed, planned map[string]bool) {
	for _, output := range state.Stale(listed, planned) {
		p := filepath.Join(cfg.DstRoot, filepath.FromSlash(output))
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("output", output).Msg("remove stale output")
			continue
		}
		state.Forget(output)
		log.Info().Str("output", output).Msg("removed stale output")
	}
}

func runJobs(ctx context.Context, cfg Config, jobs []job, state *State) ([]Result, error) {
	total := len(jobs)
	results := make([]Result, total)
	if total == 0 {
		return results, nil
	}
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info().Msgf("[%d/%d] %.1f jobs/sec", p, total, rate)
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			j := jobs[i]
			results[i] = Result{Target: j.target.Name, Output: j.output, Sources: len(j.sources)}
			if err := gctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}

			t0 := time.Now()
			err := execute(gctx, cfg, j)
			results[i].Duration = time.Since(t0)
			processed.Add(1)

			if err != nil {
				results[i].Error = err.Error()
				log.Error().Err(err).Str("target", j.target.Name).Str("output", j.output).Msg("job failed")
				if cfg.FailFast {
					return fmt.Errorf("build: %s: %w", j.output, err)
				}
				return nil
			}
			results[i].Success = true
			state.Record(j.target.Name, j.output, j.fingerprint)
			log.Debug().Str("target", j.target.Name).Str("output", j.output).Dur("took", results[i].Duration).Msg("built")
			return nil
		})
	}
	err := g.Wait()
	close(done)
	wg.Wait()

	// Jobs never started because the run was cancelled.
	for i := range results {
		if results[i].Target == "" {
			results[i] = Result{Target: jobs[i].target.Name, Output: jobs[i].output, Sources: len(jobs[i].sources), Error: context.Canceled.Error()}
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func execute(ctx context.Context, cfg Config, j job) error {
	var out []byte
	switch j.target.Mode {
	case pipeline.ModeReduce:
		r := j.target.Transform.Reduce()
		for _, src := range j.sources {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(src.Path)
			if err != nil {
				return err
			}
			if err := r.Add(src.Rel, raw); err != nil {
				return err
			}
		}
		var err error
		if out, err = r.Finish(); err != nil {
			return err
		}
	default:
		if len(j.sources) != 1 {
			return errors.New("build: map job without a source")
		}
		src := j.sources[0]
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return err
		}
		if out, err = j.target.Transform.Map(src.Rel, raw); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(cfg.DstRoot, filepath.FromSlash(j.output)), out)
}

// writeFile replaces path through a temporary file so readers never see a
// partial output.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
