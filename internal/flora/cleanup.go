package flora

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"asset-pipeline/internal/scene"
)

// Cleanup returns a copy of a merged document with one buffer, no alpha
// blending and no cameras. doc itself is not modified.
//
// Buffer 0 is canonical: every buffer view stored elsewhere is appended to
// it and rebound, then the other buffers are released. BLEND materials
// become MASK with MaskCutoff. Cameras are removed, and nodes that existed
// only to hold one are removed with them.
func Cleanup(doc *gltf.Document) (*gltf.Document, error) {
	out, err := scene.Clone(doc)
	if err != nil {
		return nil, fmt.Errorf("flora: %w", err)
	}
	if err := consolidateBuffers(out); err != nil {
		return nil, fmt.Errorf("flora: consolidate buffers: %w", err)
	}
	normalizeAlpha(out)
	removeCameras(out)
	return out, nil
}

func consolidateBuffers(doc *gltf.Document) error {
	if len(doc.Buffers) == 0 {
		return nil
	}
	for i, v := range doc.BufferViews {
		if v.Buffer == 0 {
			continue
		}
		raw, err := scene.ViewBytes(doc, i)
		if err != nil {
			return err
		}
		v.ByteOffset = scene.AppendBytes(doc, 0, raw)
		v.Buffer = 0
	}
	clear(doc.Buffers[1:])
	doc.Buffers = doc.Buffers[:1]
	return nil
}

func normalizeAlpha(doc *gltf.Document) {
	for _, m := range doc.Materials {
		if m.AlphaMode == gltf.AlphaBlend {
			m.AlphaMode = gltf.AlphaMask
			m.AlphaCutoff = gltf.Float(MaskCutoff)
		}
	}
}

func removeCameras(doc *gltf.Document) {
	pinned := make(map[int]bool)
	for _, s := range doc.Skins {
		for _, j := range s.Joints {
			pinned[j] = true
		}
		if s.Skeleton != nil {
			pinned[*s.Skeleton] = true
		}
	}
	for _, anim := range doc.Animations {
		for _, c := range anim.Channels {
			if c.Target.Node != nil {
				pinned[*c.Target.Node] = true
			}
		}
	}

	keep := make([]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		keep[i] = true
		if n.Camera == nil {
			continue
		}
		n.Camera = nil
		if n.Mesh == nil && n.Skin == nil && len(n.Children) == 0 && len(n.Extensions) == 0 && !pinned[i] {
			keep[i] = false
		}
	}

	var m scene.IndexMap
	m[scene.Nodes] = scene.Dropping(keep)
	m[scene.Cameras] = scene.Dropping(make([]bool, len(doc.Cameras)))
	scene.Compact(doc, &m)
}
