package main

import (
	"fmt"
	"os"

	"asset-pipeline/internal/scene"

	"github.com/qmuntal/gltf"
)

func main() {
	failed := false
	for _, arg := range os.Args[1:] {
		raw, err := os.ReadFile(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Read error %s: %v\n", arg, err)
			failed = true
			continue
		}
		doc, err := scene.Decode(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Decode error %s: %v\n", arg, err)
			failed = true
			continue
		}
		fmt.Printf("\n=== %s (glTF %s, generator %q) ===\n", arg, doc.Asset.Version, doc.Asset.Generator)
		printDocument(doc)
	}
	if failed {
		os.Exit(1)
	}
}

func printDocument(doc *gltf.Document) {
	fmt.Printf("buffers=%d views=%d accessors=%d meshes=%d nodes=%d materials=%d textures=%d images=%d cameras=%d skins=%d animations=%d scenes=%d\n",
		len(doc.Buffers), len(doc.BufferViews), len(doc.Accessors), len(doc.Meshes), len(doc.Nodes),
		len(doc.Materials), len(doc.Textures), len(doc.Images), len(doc.Cameras), len(doc.Skins),
		len(doc.Animations), len(doc.Scenes))

	fmt.Println("--- BUFFERS ---")
	for i, b := range doc.Buffers {
		views := 0
		for _, v := range doc.BufferViews {
			if v.Buffer == i {
				views++
			}
		}
		fmt.Printf("  Buffer[%d] bytes=%d views=%d uri=%q\n", i, b.ByteLength, views, b.URI)
	}

	fmt.Println("--- MATERIALS ---")
	for i, m := range doc.Materials {
		cutoff := ""
		if m.AlphaMode == gltf.AlphaMask {
			cutoff = fmt.Sprintf(" cutoff=%.2f", m.AlphaCutoffOrDefault())
		}
		fmt.Printf("  Material[%d] %q alpha=%s%s double=%v\n", i, m.Name, alphaName(m.AlphaMode), cutoff, m.DoubleSided)
	}

	fmt.Println("--- MESHES ---")
	for i, m := range doc.Meshes {
		fmt.Printf("  Mesh[%d] %q primitives=%d\n", i, m.Name, len(m.Primitives))
		for j, p := range m.Primitives {
			line := fmt.Sprintf("    Prim[%d] mode=%d", j, p.Mode)
			if pos, ok := p.Attributes[gltf.POSITION]; ok && pos < len(doc.Accessors) {
				a := doc.Accessors[pos]
				line += fmt.Sprintf(" verts=%d", a.Count)
				if lo, hi, ok := bounds(doc, a); ok {
					line += fmt.Sprintf(" x=[%.2f..%.2f] y=[%.2f..%.2f] z=[%.2f..%.2f]", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
				}
			}
			if p.Indices != nil && *p.Indices < len(doc.Accessors) {
				a := doc.Accessors[*p.Indices]
				line += fmt.Sprintf(" indices=%d/%dbit", a.Count, 8*scene.ComponentSize(a.ComponentType))
			}
			if p.Material != nil {
				line += fmt.Sprintf(" material=%d", *p.Material)
			}
			fmt.Println(line)
		}
	}

	fmt.Println("--- NODES ---")
	for i, n := range doc.Nodes {
		line := fmt.Sprintf("  Node[%d] %q", i, n.Name)
		if n.Mesh != nil {
			line += fmt.Sprintf(" mesh=%d", *n.Mesh)
		}
		if n.Camera != nil {
			line += fmt.Sprintf(" camera=%d", *n.Camera)
		}
		if n.Skin != nil {
			line += fmt.Sprintf(" skin=%d", *n.Skin)
		}
		if len(n.Children) > 0 {
			line += fmt.Sprintf(" children=%v", n.Children)
		}
		fmt.Println(line)
	}

	for i, c := range doc.Cameras {
		kind := "orthographic"
		if c.Perspective != nil {
			kind = "perspective"
		}
		fmt.Printf("  Camera[%d] %q type=%s\n", i, c.Name, kind)
	}
	for i, a := range doc.Animations {
		fmt.Printf("  Animation[%d] %q channels=%d samplers=%d\n", i, a.Name, len(a.Channels), len(a.Samplers))
	}
}

func bounds(doc *gltf.Document, a *gltf.Accessor) (lo, hi [3]float32, ok bool) {
	if a.Type != gltf.AccessorVec3 || a.ComponentType != gltf.ComponentFloat {
		return lo, hi, false
	}
	vals, err := scene.ReadFloats(doc, a)
	if err != nil || len(vals) < 3 {
		return lo, hi, false
	}
	copy(lo[:], vals[:3])
	copy(hi[:], vals[:3])
	for i := 3; i+2 < len(vals); i += 3 {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], vals[i+k])
			hi[k] = max(hi[k], vals[i+k])
		}
	}
	return lo, hi, true
}

func alphaName(m gltf.AlphaMode) string {
	switch m {
	case gltf.AlphaMask:
		return "MASK"
	case gltf.AlphaBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}
