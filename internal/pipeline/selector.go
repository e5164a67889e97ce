package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/gobwas/glob"
)

// Source is one file picked by a selector.
type Source struct {
	Rel     string // slash separated, relative to the selector directory
	Path    string // filesystem path
	Size    int64
	ModTime time.Time
}

// Selector picks source files: either every file under Dir whose relative
// path matches Match, or the single file File. Paths are relative to the
// source root. In Match, "*" stays within one directory and "**" crosses
// directories.
type Selector struct {
	Dir   string
	Match string
	File  string

	g glob.Glob
}

// NewDirSelector selects files under dir matching pattern.
func NewDirSelector(dir, pattern string) (Selector, error) {
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return Selector{}, fmt.Errorf("pipeline: match %q: %w", pattern, err)
	}
	return Selector{Dir: path.Clean(dir), Match: pattern, g: g}, nil
}

// NewFileSelector selects one explicit file.
func NewFileSelector(file string) Selector {
	return Selector{File: path.Clean(file)}
}

// IsFile reports whether the selector names one explicit file.
func (s Selector) IsFile() bool { return s.File != "" }

// Root returns the directory to watch for changes, relative to the
// source root.
func (s Selector) Root() string {
	if s.IsFile() {
		return path.Dir(s.File)
	}
	return s.Dir
}

// List returns the selected files under root sorted by relative path, so
// folds over them see the same order on every filesystem.
func (s Selector) List(root string) ([]Source, error) {
	if s.IsFile() {
		p := filepath.Join(root, filepath.FromSlash(s.File))
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline: source %s: %w", s.File, err)
		}
		return []Source{{Rel: path.Base(s.File), Path: p, Size: info.Size(), ModTime: info.ModTime()}}, nil
	}

	base := filepath.Join(root, filepath.FromSlash(s.Dir))
	var out []Source
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.g != nil && !s.g.Match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Source{Rel: rel, Path: p, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: list %s: %w", s.Dir, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}

func (s Selector) String() string {
	if s.IsFile() {
		return s.File
	}
	return path.Join(s.Dir, s.Match)
}
