package scene_test

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-pipeline/internal/scene"
	"asset-pipeline/internal/scene/scenetest"
)

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := scene.Decode([]byte("definitely not a model"))
	var de *scene.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecodeRejectsTruncatedContainer(t *testing.T) {
	raw := scenetest.Encode(t, scenetest.Triangle("tri", scenetest.Material("m", gltf.AlphaOpaque)))
	_, err := scene.Decode(raw[:len(raw)-16])
	var de *scene.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecodeRejectsOtherMajorVersion(t *testing.T) {
	doc := scene.New()
	doc.Asset.Version = "3.0"
	raw := scenetest.Encode(t, doc)

	_, err := scene.Decode(raw)
	require.ErrorIs(t, err, scene.ErrUnsupportedVersion)
}

func TestEmptyDocumentRoundTrip(t *testing.T) {
	doc := scenetest.Decode(t, scenetest.Encode(t, scene.New()))
	assert.Empty(t, doc.Buffers)
	assert.Empty(t, doc.Accessors)
	assert.Empty(t, doc.Materials)
	assert.Equal(t, "2.0", doc.Asset.Version)
}

func TestEncodeRejectsDetachedBuffer(t *testing.T) {
	doc := scene.New()
	doc.Buffers = []*gltf.Buffer{
		{ByteLength: 4, Data: []byte{1, 2, 3, 4}},
		{ByteLength: 4, Data: []byte{5, 6, 7, 8}},
	}
	_, err := scene.Encode(doc)
	require.ErrorIs(t, err, scene.ErrDetachedBuffer)
}

func TestDecodeKeepsGeometry(t *testing.T) {
	doc := scenetest.Decode(t, scenetest.Encode(t, scenetest.Triangle("tri", scenetest.Material("m", gltf.AlphaOpaque))))
	require.Len(t, doc.Buffers, 1)
	assert.Equal(t, doc.Buffers[0].ByteLength, len(doc.Buffers[0].Data))

	pos, err := scene.ReadFloats(doc, doc.Accessors[doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]])
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, pos)

	idx, err := scene.ReadIndices(doc, doc.Accessors[*doc.Meshes[0].Primitives[0].Indices])
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, idx)
}

func TestImportOffsetsReferences(t *testing.T) {
	dst := scene.New()
	a := scenetest.Triangle("a", scenetest.Material("a", gltf.AlphaOpaque))
	b := scenetest.Triangle("b", scenetest.Material("b", gltf.AlphaMask))
	scenetest.AddCamera(b, "cam")

	require.NoError(t, scene.Import(dst, a))
	require.NoError(t, scene.Import(dst, b))

	assert.Len(t, dst.Buffers, 2)
	assert.Len(t, dst.Accessors, 4)
	assert.Len(t, dst.Materials, 2)
	assert.Len(t, dst.Nodes, 3)
	assert.Len(t, dst.Scenes, 2)
	assert.Len(t, dst.Cameras, 1)
	assert.Nil(t, dst.Scene)

	prim := dst.Meshes[1].Primitives[0]
	assert.Equal(t, 2, prim.Attributes[gltf.POSITION])
	assert.Equal(t, 3, *prim.Indices)
	assert.Equal(t, 1, *prim.Material)
	assert.Equal(t, 1, dst.BufferViews[2].Buffer)
	assert.Equal(t, 1, *dst.Nodes[1].Mesh)
	assert.Equal(t, 0, *dst.Nodes[2].Camera)
	assert.Equal(t, []int{1, 2}, dst.Scenes[1].Nodes)
}

func TestImportRejectsDanglingReference(t *testing.T) {
	src := scenetest.Triangle("bad", scenetest.Material("m", gltf.AlphaOpaque))
	src.Nodes[0].Mesh = gltf.Index(7)

	err := scene.Import(scene.New(), src)
	var me *scene.MergeError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Error(), "mesh index 7")
}

func TestImportRejectsExternalBuffer(t *testing.T) {
	src := scene.New()
	src.Buffers = []*gltf.Buffer{{URI: "tree.bin", ByteLength: 64}}

	err := scene.Import(scene.New(), src)
	var me *scene.MergeError
	require.ErrorAs(t, err, &me)
}

func TestPruneDropsUnreferenced(t *testing.T) {
	doc := scenetest.Triangle("tri", scenetest.Material("m", gltf.AlphaOpaque))
	scene.AddFloats(doc, []float32{1, 2, 3}, gltf.AccessorScalar)
	doc.Materials = append(doc.Materials, scenetest.Material("orphan", gltf.AlphaBlend))
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "orphan"})

	scene.Prune(doc)

	assert.Len(t, doc.Accessors, 2)
	assert.Len(t, doc.BufferViews, 2)
	assert.Len(t, doc.Materials, 1)
	assert.Len(t, doc.Meshes, 1)
	assert.Equal(t, "m", doc.Materials[0].Name)
}

func TestCompactRenumbersNodes(t *testing.T) {
	doc := scenetest.Triangle("tri")
	cam := scenetest.AddCamera(doc, "cam")
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "leaf"})
	doc.Nodes[0].Children = []int{cam, 2}

	var m scene.IndexMap
	m[scene.Nodes] = scene.Dropping([]bool{true, false, true})
	scene.Compact(doc, &m)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, []int{1}, doc.Nodes[0].Children)
	assert.Equal(t, []int{0}, doc.Scenes[0].Nodes)
}

func TestCloneIsDeep(t *testing.T) {
	doc := scenetest.Triangle("tri", scenetest.Material("m", gltf.AlphaBlend))
	cp, err := scene.Clone(doc)
	require.NoError(t, err)

	cp.Materials[0].AlphaMode = gltf.AlphaMask
	cp.Buffers[0].Data[0] = 0xff
	*cp.Nodes[0].Mesh = 3

	assert.Equal(t, gltf.AlphaBlend, doc.Materials[0].AlphaMode)
	assert.NotEqual(t, byte(0xff), doc.Buffers[0].Data[0])
	assert.Equal(t, 0, *doc.Nodes[0].Mesh)
}

func TestAccessorBytesHonoursStride(t *testing.T) {
	doc := scene.New()
	doc.Buffers = []*gltf.Buffer{{ByteLength: 8, Data: []byte{1, 2, 9, 9, 3, 4, 9, 9}}}
	doc.BufferViews = []*gltf.BufferView{{Buffer: 0, ByteLength: 8, ByteStride: 4}}
	acc := &gltf.Accessor{
		BufferView:    gltf.Index(0),
		ComponentType: gltf.ComponentUbyte,
		Type:          gltf.AccessorVec2,
		Count:         2,
	}

	raw, err := scene.AccessorBytes(doc, acc)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, raw)
}
