package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"asset-pipeline/internal/pipeline"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Debounce is how long Watch waits for a burst of changes to settle.
const Debounce = 250 * time.Millisecond

// Watch builds once, then rebuilds whenever a file under a target's source
// directory changes. Each run's results are passed to report. Watch
// returns when ctx is done.
func Watch(ctx context.Context, cfg Config, targets []pipeline.Target, report func([]Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	seen := make(map[string]bool)
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		root := filepath.Join(cfg.SrcRoot, filepath.FromSlash(t.Source.Root()))
		if err := addTree(w, root, seen); err != nil {
			log.Warn().Err(err).Str("target", t.Name).Msg("not watching")
		}
	}

	report(Run(ctx, cfg, targets))

	timer := time.NewTimer(Debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch")
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name, seen); err != nil {
						log.Warn().Err(err).Str("dir", ev.Name).Msg("not watching")
					}
				}
			}
			log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change")
			timer.Reset(Debounce)
		case <-timer.C:
			report(Run(ctx, cfg, targets))
		}
	}
}

func addTree(w *fsnotify.Watcher, root string, seen map[string]bool) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() || seen[p] {
			return nil
		}
		if err := w.Add(p); err != nil {
			return err
		}
		seen[p] = true
		return nil
	})
}
