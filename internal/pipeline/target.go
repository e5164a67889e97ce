package pipeline

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Mode says how a target maps sources to outputs.
type Mode string

const (
	// ModeMap writes one output per source file.
	ModeMap Mode = "map"
	// ModeReduce folds every selected source into one output.
	ModeReduce Mode = "reduce"
	// ModeSingle converts one explicit source file into one output.
	ModeSingle Mode = "single"
)

var (
	ErrDuplicateTarget = errors.New("pipeline: duplicate target")
	ErrInvalidTarget   = errors.New("pipeline: invalid target")
)

// Spec is the declarative form of a target as it appears in config files.
type Spec struct {
	Name      string `json:"name" toml:"name" yaml:"name"`
	Dir       string `json:"dir,omitempty" toml:"dir" yaml:"dir,omitempty"`
	Match     string `json:"match,omitempty" toml:"match" yaml:"match,omitempty"`
	File      string `json:"file,omitempty" toml:"file" yaml:"file,omitempty"`
	Mode      Mode   `json:"mode,omitempty" toml:"mode" yaml:"mode,omitempty"`
	Transform string `json:"transform,omitempty" toml:"transform" yaml:"transform,omitempty"`
	Dest      string `json:"dest,omitempty" toml:"dest" yaml:"dest,omitempty"`
	Disabled  bool   `json:"disabled,omitempty" toml:"disabled" yaml:"disabled,omitempty"`
}

// Target is a validated build target.
type Target struct {
	Name      string
	Source    Selector
	Mode      Mode
	Transform Transform
	// Dest is a directory under the output root for map targets and a
	// file path under it otherwise.
	Dest    string
	Enabled bool
}

// Output returns the slash separated output path, relative to the output
// root, that src produces. For reduce and single targets src is ignored.
func (t Target) Output(src Source) string {
	if t.Mode != ModeMap {
		return t.Dest
	}
	rel := src.Rel
	if t.Transform.Ext != "" {
		rel = strings.TrimSuffix(rel, path.Ext(rel)) + t.Transform.Ext
	}
	return path.Join(t.Dest, rel)
}

// Build validates specs against reg and returns the targets in order.
func Build(specs []Spec, reg *Registry) ([]Target, error) {
	seen := make(map[string]bool, len(specs))
	targets := make([]Target, 0, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: missing name", ErrInvalidTarget)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateTarget, s.Name)
		}
		seen[s.Name] = true

		t, err := s.target(reg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (s Spec) target(reg *Registry) (Target, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidTarget, s.Name, fmt.Sprintf(format, args...))
	}

	mode := s.Mode
	if mode == "" {
		mode = ModeMap
		if s.File != "" {
			mode = ModeSingle
		}
	}

	var sel Selector
	switch {
	case s.File != "" && (s.Dir != "" || s.Match != ""):
		return Target{}, invalid("file and dir are exclusive")
	case s.File != "":
		if mode != ModeSingle {
			return Target{}, invalid("file source needs mode single, got %s", mode)
		}
		sel = NewFileSelector(s.File)
	case s.Dir != "":
		if mode == ModeSingle {
			return Target{}, invalid("mode single needs a file source")
		}
		var err error
		if sel, err = NewDirSelector(s.Dir, s.Match); err != nil {
			return Target{}, invalid("%v", err)
		}
	default:
		return Target{}, invalid("no source")
	}

	switch mode {
	case ModeMap, ModeReduce, ModeSingle:
	default:
		return Target{}, invalid("unknown mode %q", mode)
	}

	name := s.Transform
	if name == "" {
		name = "copy"
	}
	tr, err := reg.Lookup(name)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", s.Name, err)
	}
	if !tr.Supports(mode) {
		return Target{}, fmt.Errorf("target %q: %w %s: %s", s.Name, ErrModeMismatch, mode, name)
	}

	dest := s.Dest
	if dest == "" {
		if mode != ModeMap {
			return Target{}, invalid("mode %s needs a dest file", mode)
		}
		dest = sel.Dir
	}
	dest = path.Clean(dest)
	if path.IsAbs(dest) || dest == ".." || strings.HasPrefix(dest, "../") {
		return Target{}, invalid("dest %q leaves the output root", s.Dest)
	}

	return Target{
		Name:      s.Name,
		Source:    sel,
		Mode:      mode,
		Transform: tr,
		Dest:      dest,
		Enabled:   !s.Disabled,
	}, nil
}

// Select returns the targets named in names, or the enabled ones when
// names is empty. Naming a target selects it even if it is disabled.
func Select(targets []Target, names []string) ([]Target, error) {
	if len(names) == 0 {
		var out []Target
		for _, t := range targets {
			if t.Enabled {
				out = append(out, t)
			}
		}
		return out, nil
	}
	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}
	out := make([]Target, 0, len(names))
	for _, n := range names {
		t, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("pipeline: no target %q", n)
		}
		t.Enabled = true
		out = append(out, t)
	}
	return out, nil
}
