// Package flora merges many small vegetation models into one model per
// group, so the runtime loads one file and one buffer instead of dozens.
package flora

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog/log"

	"asset-pipeline/internal/scene"
)

// MaskCutoff replaces alpha blending on merged foliage.
const MaskCutoff = 0.1

// Reducer folds binary models into one document in the order they are
// added. The zero value is not usable; call NewReducer.
type Reducer struct {
	doc   *gltf.Document
	count int
}

// NewReducer starts a fold from an empty document.
func NewReducer() *Reducer {
	return &Reducer{doc: scene.New()}
}

// Add decodes raw and imports it into the accumulator. name is only used
// in errors.
func (r *Reducer) Add(name string, raw []byte) error {
	doc, err := scene.Decode(raw)
	if err != nil {
		return fmt.Errorf("flora: %s: %w", name, err)
	}
	if err := scene.Import(r.doc, doc); err != nil {
		return fmt.Errorf("flora: %s: %w", name, err)
	}
	r.count++
	log.Debug().Str("model", name).Int("meshes", len(r.doc.Meshes)).Msg("flora: merged")
	return nil
}

// Finish cleans up the accumulated document and encodes it.
func (r *Reducer) Finish() ([]byte, error) {
	cleaned, err := Cleanup(r.doc)
	if err != nil {
		return nil, err
	}
	out, err := scene.Encode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("flora: %w", err)
	}
	log.Debug().
		Int("models", r.count).
		Int("materials", len(cleaned.Materials)).
		Int("bytes", len(out)).
		Msg("flora: group written")
	return out, nil
}

// Merge folds docs in order, cleans up the result and encodes it. An
// empty input yields an empty document.
func Merge(docs [][]byte) ([]byte, error) {
	r := NewReducer()
	for i, raw := range docs {
		if err := r.Add(fmt.Sprintf("input %d", i), raw); err != nil {
			return nil, err
		}
	}
	return r.Finish()
}
