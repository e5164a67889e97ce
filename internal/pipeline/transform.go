package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"asset-pipeline/internal/flora"
	"asset-pipeline/internal/optimize"
	"asset-pipeline/internal/texture"
)

var (
	ErrUnknownTransform = errors.New("pipeline: unknown transform")
	ErrModeMismatch     = errors.New("pipeline: transform does not support mode")
)

// Reducer folds many sources into one output.
type Reducer interface {
	Add(name string, raw []byte) error
	Finish() ([]byte, error)
}

// Transform turns source bytes into output bytes. Map transforms handle
// one file at a time and back map and single targets; Reduce transforms
// fold a whole selection and back reduce targets.
type Transform struct {
	Name string
	Desc string
	// Ext replaces the source extension on map outputs. Empty keeps it.
	Ext string
	// Params describes the options that shape the output. Outputs built
	// under different params are never considered up to date.
	Params string
	Map    func(name string, raw []byte) ([]byte, error)
	Reduce func() Reducer
}

// Supports reports whether the transform can drive a target of mode m.
func (t Transform) Supports(m Mode) bool {
	if m == ModeReduce {
		return t.Reduce != nil
	}
	return t.Map != nil
}

// Options tune the built-in transforms.
type Options struct {
	MaxTextureSize int
}

// Registry maps transform names to transforms.
type Registry struct {
	transforms map[string]Transform
}

// NewRegistry returns a registry holding the built-in transforms.
func NewRegistry(opts Options) *Registry {
	conv := texture.Converter{MaxSize: opts.MaxTextureSize}
	texParams := fmt.Sprintf("max_size=%d", max(0, opts.MaxTextureSize))
	r := &Registry{transforms: make(map[string]Transform)}
	r.Register(Transform{
		Name: "copy",
		Desc: "copy the source unchanged",
		Map: func(_ string, raw []byte) ([]byte, error) {
			return slices.Clone(raw), nil
		},
	})
	r.Register(Transform{
		Name: "optimize",
		Desc: "resample animations, deduplicate resources and pack glTF binaries",
		Ext:  ".glb",
		Map: func(_ string, raw []byte) ([]byte, error) {
			return optimize.Optimize(raw)
		},
	})
	r.Register(Transform{
		Name:   "flora",
		Desc:   "merge glTF binaries into one cleaned-up flora set",
		Reduce: func() Reducer { return flora.NewReducer() },
	})
	r.Register(Transform{
		Name:   "webp",
		Desc:   "re-encode textures as lossless WebP",
		Ext:    ".webp",
		Params: texParams,
		Map:    conv.WebP,
	})
	r.Register(Transform{
		Name:   "png",
		Desc:   "re-encode textures as PNG",
		Ext:    ".png",
		Params: texParams,
		Map:    conv.PNG,
	})
	r.Register(Transform{
		Name:   "texture-index",
		Desc:   "catalog texture names and dimensions as JSON",
		Reduce: func() Reducer { return texture.NewCatalog() },
	})
	return r
}

// Register adds or replaces a transform.
func (r *Registry) Register(t Transform) {
	r.transforms[t.Name] = t
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, error) {
	t, ok := r.transforms[name]
	if !ok {
		return Transform{}, fmt.Errorf("%w %q", ErrUnknownTransform, name)
	}
	return t, nil
}

// Names returns the registered transform names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
