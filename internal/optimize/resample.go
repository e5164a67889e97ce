package optimize

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"

	"asset-pipeline/internal/scene"
)

// DefaultTolerance is the largest per-component difference at which two
// keyframe values count as equal.
const DefaultTolerance float32 = 1e-4

// Resample drops keyframes that sit inside a constant run: an interior
// keyframe equal to both neighbours changes nothing under LINEAR or STEP
// interpolation. Cubic spline samplers are left untouched. Resampled data
// goes to new accessors because samplers often share their input accessor.
type Resample struct {
	Tolerance float32
}

func (Resample) Name() string { return "resample" }

func (Resample) Desc() string {
	return "Removes keyframes inside constant runs of animation samplers."
}

func (r Resample) Execute(doc *gltf.Document) error {
	tol := r.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	for ai, anim := range doc.Animations {
		for si, s := range anim.Samplers {
			if s.Interpolation == gltf.InterpolationCubicSpline {
				continue
			}
			if s.Input < 0 || s.Input >= len(doc.Accessors) || s.Output < 0 || s.Output >= len(doc.Accessors) {
				return fmt.Errorf("animation %d sampler %d: accessor out of range", ai, si)
			}
			in, out := doc.Accessors[s.Input], doc.Accessors[s.Output]
			if in.Sparse != nil || out.Sparse != nil ||
				in.ComponentType != gltf.ComponentFloat || out.ComponentType != gltf.ComponentFloat {
				continue
			}

			times, err := scene.ReadFloats(doc, in)
			if err != nil {
				return fmt.Errorf("animation %d sampler %d input: %w", ai, si, err)
			}
			values, err := scene.ReadFloats(doc, out)
			if err != nil {
				return fmt.Errorf("animation %d sampler %d output: %w", ai, si, err)
			}
			if len(times) < 3 {
				continue
			}
			if len(values) == 0 || len(values)%len(times) != 0 {
				return fmt.Errorf("animation %d sampler %d: %d values for %d keyframes", ai, si, len(values), len(times))
			}
			stride := len(values) / len(times)

			kept := keyframes(values, stride, tol)
			if len(kept) == len(times) {
				continue
			}
			newTimes := make([]float32, 0, len(kept))
			newValues := make([]float32, 0, len(kept)*stride)
			for _, k := range kept {
				newTimes = append(newTimes, times[k])
				newValues = append(newValues, values[k*stride:(k+1)*stride]...)
			}
			s.Input = scene.AddFloats(doc, newTimes, gltf.AccessorScalar)
			s.Output = scene.AddFloats(doc, newValues, out.Type)
		}
	}
	return nil
}

// keyframes returns the indices of keyframes to keep. The first and last
// keyframes always stay.
func keyframes(values []float32, stride int, tol float32) []int {
	n := len(values) / stride
	key := func(i int) []float32 { return values[i*stride : (i+1)*stride] }
	kept := []int{0}
	for i := 1; i < n-1; i++ {
		if !equal(key(i), key(i-1), tol) || !equal(key(i), key(i+1), tol) {
			kept = append(kept, i)
		}
	}
	return append(kept, n-1)
}

func equal(a, b []float32, tol float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
