package optimize

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"

	"asset-pipeline/internal/scene"
)

// ErrExternalBuffer is returned when geometry lives outside the container.
var ErrExternalBuffer = errors.New("buffer data is not embedded")

// primitiveRestart is reserved in 16-bit index buffers.
const primitiveRestart = 0xffff

// Compress shrinks geometry storage losslessly: 32-bit index buffers whose
// values fit are rewritten as 16-bit, unused data is pruned, and every
// buffer view is repacked into one buffer at four-byte alignment.
type Compress struct{}

func (Compress) Name() string { return "compress" }

func (Compress) Desc() string {
	return "Narrows index buffers and repacks all buffer views into a single buffer."
}

func (Compress) Execute(doc *gltf.Document) error {
	for i, b := range doc.Buffers {
		if b.Data == nil && b.ByteLength > 0 {
			return fmt.Errorf("buffer %d (%q): %w", i, b.URI, ErrExternalBuffer)
		}
	}
	if !scene.PrimitiveExtensions(doc) {
		if err := narrowIndices(doc); err != nil {
			return err
		}
	}
	scene.Prune(doc)
	return repack(doc)
}

func narrowIndices(doc *gltf.Document) error {
	indexOnly := make(map[int]bool)
	for _, mesh := range doc.Meshes {
		for _, p := range mesh.Primitives {
			if p.Indices != nil {
				indexOnly[*p.Indices] = true
			}
		}
	}
	for _, mesh := range doc.Meshes {
		for _, p := range mesh.Primitives {
			for _, a := range p.Attributes {
				delete(indexOnly, a)
			}
		}
	}
	for _, anim := range doc.Animations {
		for _, s := range anim.Samplers {
			delete(indexOnly, s.Input)
			delete(indexOnly, s.Output)
		}
	}

	// Walk accessors in order so the output layout is stable.
	for i, a := range doc.Accessors {
		if !indexOnly[i] || a.ComponentType != gltf.ComponentUint || a.Sparse != nil {
			continue
		}
		indices, err := scene.ReadIndices(doc, a)
		if err != nil {
			return fmt.Errorf("accessor %d: %w", i, err)
		}
		fits := true
		for _, v := range indices {
			if v >= primitiveRestart {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		view := scene.AddView(doc, scene.EncodeUshort(indices), gltf.TargetElementArrayBuffer)
		a.BufferView = gltf.Index(view)
		a.ByteOffset = 0
		a.ComponentType = gltf.ComponentUshort
	}
	return nil
}

func repack(doc *gltf.Document) error {
	if len(doc.BufferViews) == 0 {
		doc.Buffers = nil
		return nil
	}

	var data []byte
	offsets := make([]int, len(doc.BufferViews))
	for i := range doc.BufferViews {
		raw, err := scene.ViewBytes(doc, i)
		if err != nil {
			return err
		}
		for len(data)%4 != 0 {
			data = append(data, 0)
		}
		offsets[i] = len(data)
		data = append(data, raw...)
	}

	name := ""
	if len(doc.Buffers) > 0 {
		name = doc.Buffers[0].Name
	}
	for i, v := range doc.BufferViews {
		v.Buffer = 0
		v.ByteOffset = offsets[i]
	}
	doc.Buffers = []*gltf.Buffer{{Name: name, ByteLength: len(data), Data: data}}
	return nil
}
