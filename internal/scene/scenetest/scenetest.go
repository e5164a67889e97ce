// Package scenetest builds small in-memory glTF documents for tests.
package scenetest

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"asset-pipeline/internal/scene"
)

// Material returns a material with the given alpha mode.
func Material(name string, mode gltf.AlphaMode) *gltf.Material {
	return &gltf.Material{Name: name, AlphaMode: mode}
}

// Triangle returns a one-triangle document: one mesh, one node, one scene
// and one material per entry in mats, each applied to its own primitive.
func Triangle(name string, mats ...*gltf.Material) *gltf.Document {
	doc := scene.New()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	mesh := &gltf.Mesh{Name: name}
	for i, m := range mats {
		doc.Materials = append(doc.Materials, m)
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(i),
		})
	}
	if len(mats) == 0 {
		mesh.Primitives = []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
			Indices:    gltf.Index(idx),
		}}
	}
	doc.Meshes = []*gltf.Mesh{mesh}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes = []*gltf.Scene{{Name: name, Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	return doc
}

// AddCamera attaches a perspective camera to a new root node of the first
// scene and returns the node index.
func AddCamera(doc *gltf.Document, name string) int {
	doc.Cameras = append(doc.Cameras, &gltf.Camera{
		Name:        name,
		Perspective: &gltf.Perspective{Yfov: 0.8, Znear: 0.1},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:   name,
		Camera: gltf.Index(len(doc.Cameras) - 1),
	})
	n := len(doc.Nodes) - 1
	if len(doc.Scenes) > 0 {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, n)
	}
	return n
}

// Encode returns doc as a binary container, failing the test on error.
func Encode(t testing.TB, doc *gltf.Document) []byte {
	t.Helper()
	raw, err := scene.Encode(doc)
	if err != nil {
		t.Fatalf("encode %q: %v", doc.Asset.Generator, err)
	}
	return raw
}

// Decode parses raw, failing the test on error.
func Decode(t testing.TB, raw []byte) *gltf.Document {
	t.Helper()
	doc, err := scene.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}
