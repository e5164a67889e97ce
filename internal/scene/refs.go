package scene

import "github.com/qmuntal/gltf"

// Kind names a top-level document collection that other properties refer
// to by index.
type Kind int

const (
	Accessors Kind = iota
	BufferViews
	Buffers
	Materials
	Textures
	Images
	Samplers
	Meshes
	Nodes
	Cameras
	Skins
	numKinds
)

var kindNames = [numKinds]string{
	"accessor", "bufferView", "buffer", "material", "texture", "image",
	"sampler", "mesh", "node", "camera", "skin",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Count returns the number of entries doc holds of kind k.
func Count(doc *gltf.Document, k Kind) int {
	switch k {
	case Accessors:
		return len(doc.Accessors)
	case BufferViews:
		return len(doc.BufferViews)
	case Buffers:
		return len(doc.Buffers)
	case Materials:
		return len(doc.Materials)
	case Textures:
		return len(doc.Textures)
	case Images:
		return len(doc.Images)
	case Samplers:
		return len(doc.Samplers)
	case Meshes:
		return len(doc.Meshes)
	case Nodes:
		return len(doc.Nodes)
	case Cameras:
		return len(doc.Cameras)
	case Skins:
		return len(doc.Skins)
	}
	return 0
}

// eachRef calls fn with the address of every index reference held by doc.
// Returning false drops the reference: optional pointers are cleared, list
// entries and attributes removed, texture infos detached. Animation
// channel samplers are local to their animation and not visited.
// Sparse accessor views are not visited either; callers reject or skip
// documents with sparse accessors before renumbering buffer views.
func eachRef(doc *gltf.Document, fn func(k Kind, ref *int) bool) {
	ptr := func(k Kind, p **int) {
		if *p == nil {
			return
		}
		v := **p
		if fn(k, &v) {
			*p = &v
		} else {
			*p = nil
		}
	}
	list := func(k Kind, l []int) []int {
		out := l[:0]
		for _, v := range l {
			if fn(k, &v) {
				out = append(out, v)
			}
		}
		return out
	}
	attrs := func(a gltf.PrimitiveAttributes) {
		for name, v := range a {
			if fn(Accessors, &v) {
				a[name] = v
			} else {
				delete(a, name)
			}
		}
	}
	texInfo := func(t **gltf.TextureInfo) {
		if *t != nil && !fn(Textures, &(*t).Index) {
			*t = nil
		}
	}

	for _, a := range doc.Accessors {
		ptr(BufferViews, &a.BufferView)
	}
	for _, v := range doc.BufferViews {
		fn(Buffers, &v.Buffer)
	}
	for _, img := range doc.Images {
		ptr(BufferViews, &img.BufferView)
	}
	for _, t := range doc.Textures {
		ptr(Samplers, &t.Sampler)
		ptr(Images, &t.Source)
	}
	for _, m := range doc.Materials {
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			texInfo(&pbr.BaseColorTexture)
			texInfo(&pbr.MetallicRoughnessTexture)
		}
		texInfo(&m.EmissiveTexture)
		if m.NormalTexture != nil {
			ptr(Textures, &m.NormalTexture.Index)
			if m.NormalTexture.Index == nil {
				m.NormalTexture = nil
			}
		}
		if m.OcclusionTexture != nil {
			ptr(Textures, &m.OcclusionTexture.Index)
			if m.OcclusionTexture.Index == nil {
				m.OcclusionTexture = nil
			}
		}
	}
	for _, mesh := range doc.Meshes {
		for _, p := range mesh.Primitives {
			attrs(p.Attributes)
			for _, t := range p.Targets {
				attrs(t)
			}
			ptr(Accessors, &p.Indices)
			ptr(Materials, &p.Material)
		}
	}
	for _, n := range doc.Nodes {
		ptr(Cameras, &n.Camera)
		ptr(Skins, &n.Skin)
		ptr(Meshes, &n.Mesh)
		n.Children = list(Nodes, n.Children)
	}
	for _, s := range doc.Skins {
		ptr(Accessors, &s.InverseBindMatrices)
		ptr(Nodes, &s.Skeleton)
		s.Joints = list(Nodes, s.Joints)
	}
	for _, s := range doc.Scenes {
		s.Nodes = list(Nodes, s.Nodes)
	}
	for _, anim := range doc.Animations {
		for _, s := range anim.Samplers {
			fn(Accessors, &s.Input)
			fn(Accessors, &s.Output)
		}
		for _, c := range anim.Channels {
			ptr(Nodes, &c.Target.Node)
		}
	}
}

// IndexMap maps old indices to new ones per kind. A nil entry is the
// identity; a negative entry drops every reference to that index.
type IndexMap [numKinds][]int

func (m *IndexMap) lookup(k Kind, i int) int {
	if m[k] == nil || i < 0 || i >= len(m[k]) {
		return i
	}
	return m[k][i]
}

// Rewrite passes every index reference in doc through m. Collections are
// left as they are; use Compact to also drop entries.
func Rewrite(doc *gltf.Document, m *IndexMap) {
	eachRef(doc, func(k Kind, ref *int) bool {
		*ref = m.lookup(k, *ref)
		return *ref >= 0
	})
}

// Compact rewrites references through m and removes every entry mapped to
// a negative index. Kept entries must map to their position among the
// kept entries; Dropping builds such maps.
func Compact(doc *gltf.Document, m *IndexMap) {
	Rewrite(doc, m)
	doc.Accessors = keep(doc.Accessors, m[Accessors])
	doc.BufferViews = keep(doc.BufferViews, m[BufferViews])
	doc.Buffers = keep(doc.Buffers, m[Buffers])
	doc.Materials = keep(doc.Materials, m[Materials])
	doc.Textures = keep(doc.Textures, m[Textures])
	doc.Images = keep(doc.Images, m[Images])
	doc.Samplers = keep(doc.Samplers, m[Samplers])
	doc.Meshes = keep(doc.Meshes, m[Meshes])
	doc.Nodes = keep(doc.Nodes, m[Nodes])
	doc.Cameras = keep(doc.Cameras, m[Cameras])
	doc.Skins = keep(doc.Skins, m[Skins])
}

// Dropping returns a compaction map that keeps entry i when keep[i].
func Dropping(keep []bool) []int {
	m := make([]int, len(keep))
	n := 0
	for i, k := range keep {
		if k {
			m[i] = n
			n++
		} else {
			m[i] = -1
		}
	}
	return m
}

func keep[T any](items []T, m []int) []T {
	if m == nil {
		return items
	}
	out := items[:0]
	for i, it := range items {
		if i < len(m) && m[i] >= 0 {
			out = append(out, it)
		}
	}
	clear(items[len(out):])
	return out
}

// HasSparse reports whether any accessor uses sparse storage.
func HasSparse(doc *gltf.Document) bool {
	for _, a := range doc.Accessors {
		if a.Sparse != nil {
			return true
		}
	}
	return false
}
