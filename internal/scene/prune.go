package scene

import "github.com/qmuntal/gltf"

// Prune removes accessors, buffer views, meshes, materials, textures,
// images and samplers that nothing reachable from the node list refers to.
// Nodes, skins, cameras, scenes and buffers are kept. Collections that
// extensions may refer to by index are left alone: textures, images and
// samplers when a material carries extensions, accessors and buffer views
// when a primitive does. Buffer views are also kept when sparse accessors
// are present.
func Prune(doc *gltf.Document) {
	used := markUsed(doc)

	var m IndexMap
	for _, k := range []Kind{Accessors, BufferViews, Materials, Textures, Images, Samplers, Meshes} {
		m[k] = Dropping(used[k])
	}
	if HasSparse(doc) {
		m[BufferViews] = nil
	}
	if materialExtensions(doc) {
		m[Textures], m[Images], m[Samplers] = nil, nil, nil
	}
	if primitiveExtensions(doc) {
		m[Accessors], m[BufferViews] = nil, nil
	}
	Compact(doc, &m)
}

func markUsed(doc *gltf.Document) [numKinds][]bool {
	var used [numKinds][]bool
	for k := Kind(0); k < numKinds; k++ {
		used[k] = make([]bool, Count(doc, k))
	}
	mark := func(k Kind, i int) bool {
		if i < 0 || i >= len(used[k]) || used[k][i] {
			return false
		}
		used[k][i] = true
		return true
	}
	markPtr := func(k Kind, p *int) bool {
		return p != nil && mark(k, *p)
	}
	markAccessor := func(i int) {
		if mark(Accessors, i) {
			markPtr(BufferViews, doc.Accessors[i].BufferView)
		}
	}
	markTexture := func(i int) {
		if !mark(Textures, i) {
			return
		}
		t := doc.Textures[i]
		markPtr(Samplers, t.Sampler)
		if markPtr(Images, t.Source) {
			markPtr(BufferViews, doc.Images[*t.Source].BufferView)
		}
	}
	markMaterial := func(i int) {
		if !mark(Materials, i) {
			return
		}
		m := doc.Materials[i]
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorTexture != nil {
				markTexture(pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				markTexture(pbr.MetallicRoughnessTexture.Index)
			}
		}
		if m.EmissiveTexture != nil {
			markTexture(m.EmissiveTexture.Index)
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			markTexture(*m.NormalTexture.Index)
		}
		if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
			markTexture(*m.OcclusionTexture.Index)
		}
	}
	markMesh := func(i int) {
		if !mark(Meshes, i) {
			return
		}
		for _, p := range doc.Meshes[i].Primitives {
			for _, a := range p.Attributes {
				markAccessor(a)
			}
			for _, t := range p.Targets {
				for _, a := range t {
					markAccessor(a)
				}
			}
			if p.Indices != nil {
				markAccessor(*p.Indices)
			}
			if p.Material != nil {
				markMaterial(*p.Material)
			}
		}
	}

	for _, n := range doc.Nodes {
		if n.Mesh != nil {
			markMesh(*n.Mesh)
		}
	}
	for _, s := range doc.Skins {
		if s.InverseBindMatrices != nil {
			markAccessor(*s.InverseBindMatrices)
		}
	}
	for _, anim := range doc.Animations {
		for _, s := range anim.Samplers {
			markAccessor(s.Input)
			markAccessor(s.Output)
		}
	}
	return used
}

func materialExtensions(doc *gltf.Document) bool {
	for _, m := range doc.Materials {
		if len(m.Extensions) > 0 {
			return true
		}
	}
	return false
}

func primitiveExtensions(doc *gltf.Document) bool {
	for _, mesh := range doc.Meshes {
		for _, p := range mesh.Primitives {
			if len(p.Extensions) > 0 {
				return true
			}
		}
	}
	return false
}

// PrimitiveExtensions reports whether any primitive carries extensions,
// such as compressed geometry that refers to buffer views directly.
func PrimitiveExtensions(doc *gltf.Document) bool {
	return primitiveExtensions(doc)
}
