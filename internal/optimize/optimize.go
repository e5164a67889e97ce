// Package optimize rewrites binary glTF models to make them smaller without
// changing how they render: redundant keyframes are dropped, identical
// resources collapsed, and geometry repacked.
package optimize

import (
	"fmt"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog/log"

	"asset-pipeline/internal/scene"
)

// Pass is one in-place document transformation.
type Pass interface {
	Name() string
	Desc() string
	Execute(doc *gltf.Document) error
}

// TransformError reports the pass that failed.
type TransformError struct {
	Pass string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("optimize: %s: %v", e.Pass, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Default returns the model passes in the order they must run: resampling
// first exposes more duplicates to dedup, and compression works on the
// deduplicated geometry.
func Default() []Pass {
	return []Pass{Resample{}, Dedup{}, Compress{}}
}

// Run applies passes to doc in order and stops at the first failure.
func Run(doc *gltf.Document, passes ...Pass) error {
	for _, p := range passes {
		start := time.Now()
		if err := p.Execute(doc); err != nil {
			return &TransformError{Pass: p.Name(), Err: err}
		}
		log.Debug().
			Str("pass", p.Name()).
			Str("desc", p.Desc()).
			Dur("took", time.Since(start)).
			Int("accessors", len(doc.Accessors)).
			Msg("optimize: pass done")
	}
	return nil
}

// Optimize decodes a binary model, runs the default passes and encodes the
// result.
func Optimize(raw []byte) ([]byte, error) {
	doc, err := scene.Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := Run(doc, Default()...); err != nil {
		return nil, err
	}
	return scene.Encode(doc)
}
