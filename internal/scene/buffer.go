package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
)

// ErrSparse is returned by accessor readers for sparse accessors.
var ErrSparse = errors.New("scene: sparse accessor")

// ComponentSize returns the byte size of one component.
func ComponentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

// ComponentCount returns the number of components per element.
func ComponentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

// ElementSize is the packed byte size of one accessor element.
func ElementSize(a *gltf.Accessor) int {
	return ComponentSize(a.ComponentType) * ComponentCount(a.Type)
}

// ViewBytes returns the bytes covered by buffer view i. The slice aliases
// the buffer data.
func ViewBytes(doc *gltf.Document, i int) ([]byte, error) {
	if i < 0 || i >= len(doc.BufferViews) {
		return nil, fmt.Errorf("scene: bufferView %d out of range", i)
	}
	v := doc.BufferViews[i]
	if v.Buffer < 0 || v.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("scene: bufferView %d: buffer %d out of range", i, v.Buffer)
	}
	data := doc.Buffers[v.Buffer].Data
	end := v.ByteOffset + v.ByteLength
	if v.ByteOffset < 0 || end > len(data) {
		return nil, fmt.Errorf("scene: bufferView %d: range [%d,%d) exceeds buffer %d (%d bytes)",
			i, v.ByteOffset, end, v.Buffer, len(data))
	}
	return data[v.ByteOffset:end], nil
}

// AccessorBytes returns a tightly packed copy of the accessor elements.
// Accessors without a buffer view read as zeros.
func AccessorBytes(doc *gltf.Document, a *gltf.Accessor) ([]byte, error) {
	if a.Sparse != nil {
		return nil, ErrSparse
	}
	elem := ElementSize(a)
	if elem == 0 {
		return nil, fmt.Errorf("scene: accessor %q: unknown element layout", a.Name)
	}
	out := make([]byte, elem*a.Count)
	if a.BufferView == nil {
		return out, nil
	}
	view, err := ViewBytes(doc, *a.BufferView)
	if err != nil {
		return nil, err
	}
	stride := doc.BufferViews[*a.BufferView].ByteStride
	if stride == 0 {
		stride = elem
	}
	for i := 0; i < a.Count; i++ {
		off := a.ByteOffset + i*stride
		if off+elem > len(view) {
			return nil, fmt.Errorf("scene: accessor %q: element %d past end of view", a.Name, i)
		}
		copy(out[i*elem:], view[off:off+elem])
	}
	return out, nil
}

// ReadFloats decodes a float accessor into Count*components values.
func ReadFloats(doc *gltf.Document, a *gltf.Accessor) ([]float32, error) {
	if a.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("scene: accessor %q is not float", a.Name)
	}
	raw, err := AccessorBytes(doc, a)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// ReadIndices decodes an unsigned scalar accessor.
func ReadIndices(doc *gltf.Document, a *gltf.Accessor) ([]uint32, error) {
	if a.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("scene: accessor %q is not scalar", a.Name)
	}
	raw, err := AccessorBytes(doc, a)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, a.Count)
	for i := range out {
		switch a.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(raw[i])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		case gltf.ComponentUint:
			out[i] = binary.LittleEndian.Uint32(raw[i*4:])
		default:
			return nil, fmt.Errorf("scene: accessor %q: indices must be unsigned", a.Name)
		}
	}
	return out, nil
}

// AppendBytes appends data to buffer b at a four-byte boundary and returns
// the offset it was written at. The first buffer is created if the
// document has none.
func AppendBytes(doc *gltf.Document, b int, data []byte) int {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	buf := doc.Buffers[b]
	cur := buf.Data[:len(buf.Data):len(buf.Data)]
	if pad := align4(len(cur)) - len(cur); pad > 0 {
		cur = append(cur, make([]byte, pad)...)
	}
	off := len(cur)
	buf.Data = append(cur, data...)
	buf.ByteLength = len(buf.Data)
	return off
}

// AddView appends data to the first buffer and returns a new buffer view
// over it.
func AddView(doc *gltf.Document, data []byte, target gltf.Target) int {
	off := AppendBytes(doc, 0, data)
	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: off,
		ByteLength: len(data),
		Target:     target,
	})
	return len(doc.BufferViews) - 1
}

// AddFloats stores values as a new float accessor of type t with min/max
// bounds and returns its index.
func AddFloats(doc *gltf.Document, values []float32, t gltf.AccessorType) int {
	comps := ComponentCount(t)
	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	lo := make([]float64, comps)
	hi := make([]float64, comps)
	for c := 0; c < comps; c++ {
		lo[c], hi[c] = math.Inf(1), math.Inf(-1)
	}
	for i, v := range values {
		c := i % comps
		lo[c] = math.Min(lo[c], float64(v))
		hi[c] = math.Max(hi[c], float64(v))
	}
	if len(values) == 0 {
		lo, hi = nil, nil
	}
	view := AddView(doc, raw, gltf.TargetNone)
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentFloat,
		Count:         len(values) / comps,
		Type:          t,
		Min:           lo,
		Max:           hi,
	})
	return len(doc.Accessors) - 1
}

// EncodeUshort packs indices as little-endian uint16 values.
func EncodeUshort(indices []uint32) []byte {
	raw := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	return raw
}

func align4(n int) int {
	return (n + 3) &^ 3
}
