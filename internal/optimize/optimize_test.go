package optimize

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-pipeline/internal/scene"
	"asset-pipeline/internal/scene/scenetest"
)

func addTrack(doc *gltf.Document, interp gltf.Interpolation, times, values []float32) *gltf.AnimationSampler {
	in := scene.AddFloats(doc, times, gltf.AccessorScalar)
	out := scene.AddFloats(doc, values, gltf.AccessorVec3)
	s := &gltf.AnimationSampler{Input: in, Output: out, Interpolation: interp}
	doc.Animations = append(doc.Animations, &gltf.Animation{
		Samplers: []*gltf.AnimationSampler{s},
		Channels: []*gltf.AnimationChannel{{
			Sampler: 0,
			Target:  gltf.AnimationChannelTarget{Node: gltf.Index(0), Path: gltf.TRSTranslation},
		}},
	})
	return s
}

func readFloats(t *testing.T, doc *gltf.Document, i int) []float32 {
	t.Helper()
	v, err := scene.ReadFloats(doc, doc.Accessors[i])
	require.NoError(t, err)
	return v
}

func TestOptimizeOutputDecodes(t *testing.T) {
	doc := scenetest.Triangle("tree",
		scenetest.Material("bark", gltf.AlphaOpaque),
		scenetest.Material("bark copy", gltf.AlphaOpaque))
	addTrack(doc, gltf.InterpolationLinear,
		[]float32{0, 1, 2, 3},
		[]float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1})

	out, err := Optimize(scenetest.Encode(t, doc))
	require.NoError(t, err)

	got := scenetest.Decode(t, out)
	assert.Len(t, got.Buffers, 1)
	assert.Len(t, got.Materials, 1)
	assert.Len(t, got.Meshes, 1)
	assert.Len(t, got.Animations, 1)
}

func TestOptimizeRejectsMalformedInput(t *testing.T) {
	_, err := Optimize([]byte{0x67, 0x6c, 0x54})
	var de *scene.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestResampleDropsConstantRun(t *testing.T) {
	doc := scenetest.Triangle("tree")
	s := addTrack(doc, gltf.InterpolationLinear,
		[]float32{0, 1, 2, 3, 4},
		[]float32{
			0, 0, 0,
			1, 1, 1,
			1, 1, 1,
			1, 1, 1,
			2, 2, 2,
		})

	require.NoError(t, Resample{}.Execute(doc))

	assert.Equal(t, []float32{0, 1, 3, 4}, readFloats(t, doc, s.Input))
	assert.Equal(t, []float32{0, 0, 0, 1, 1, 1, 1, 1, 1, 2, 2, 2}, readFloats(t, doc, s.Output))
}

func TestResampleKeepsSharedInputIntact(t *testing.T) {
	doc := scenetest.Triangle("tree")
	moving := addTrack(doc, gltf.InterpolationLinear,
		[]float32{0, 1, 2},
		[]float32{0, 0, 0, 1, 1, 1, 2, 2, 2})
	still := addTrack(doc, gltf.InterpolationStep,
		[]float32{0, 1, 2},
		[]float32{5, 5, 5, 5, 5, 5, 5, 5, 5})
	still.Input = moving.Input
	shared := moving.Input

	require.NoError(t, Resample{}.Execute(doc))

	assert.Equal(t, shared, moving.Input)
	assert.Equal(t, []float32{0, 1, 2}, readFloats(t, doc, moving.Input))
	assert.NotEqual(t, shared, still.Input)
	assert.Equal(t, []float32{0, 2}, readFloats(t, doc, still.Input))
}

func TestResampleSkipsCubicSpline(t *testing.T) {
	doc := scenetest.Triangle("tree")
	s := addTrack(doc, gltf.InterpolationCubicSpline,
		[]float32{0, 1, 2},
		[]float32{1, 1, 1, 1, 1, 1, 1, 1, 1})
	in := s.Input

	require.NoError(t, Resample{}.Execute(doc))
	assert.Equal(t, in, s.Input)
}

func TestResampleRejectsEmptyOutput(t *testing.T) {
	doc := scenetest.Triangle("tree")
	addTrack(doc, gltf.InterpolationLinear, []float32{0, 1, 2}, nil)

	_, err := Optimize(scenetest.Encode(t, doc))
	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "resample", te.Pass)
}

func TestDedupCollapsesIdenticalResources(t *testing.T) {
	doc := scenetest.Triangle("a", scenetest.Material("leaf", gltf.AlphaMask))
	other := scenetest.Triangle("b", scenetest.Material("leaf-2", gltf.AlphaMask))
	require.NoError(t, scene.Import(doc, other))
	require.Len(t, doc.Accessors, 4)

	require.NoError(t, Dedup{}.Execute(doc))

	assert.Len(t, doc.Accessors, 2)
	assert.Len(t, doc.Materials, 1)
	assert.Len(t, doc.Meshes, 1)
	assert.Equal(t, 0, *doc.Nodes[1].Mesh)
	assert.Len(t, doc.Nodes, 2)
}

func TestDedupKeepsDistinctMaterials(t *testing.T) {
	doc := scenetest.Triangle("a",
		scenetest.Material("opaque", gltf.AlphaOpaque),
		scenetest.Material("blend", gltf.AlphaBlend))

	require.NoError(t, Dedup{}.Execute(doc))
	assert.Len(t, doc.Materials, 2)
}

func TestCompressNarrowsIndices(t *testing.T) {
	doc := scene.New()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	raw := make([]byte, 12)
	binary.LittleEndian.PutUint32(raw[4:], 1)
	binary.LittleEndian.PutUint32(raw[8:], 2)
	view := scene.AddView(doc, raw, gltf.TargetElementArrayBuffer)
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(view),
		ComponentType: gltf.ComponentUint,
		Type:          gltf.AccessorScalar,
		Count:         3,
	})
	idx := len(doc.Accessors) - 1
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos},
		Indices:    gltf.Index(idx),
	}}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}

	require.NoError(t, Compress{}.Execute(doc))

	acc := doc.Accessors[*doc.Meshes[0].Primitives[0].Indices]
	assert.Equal(t, gltf.ComponentUshort, acc.ComponentType)
	got, err := scene.ReadIndices(doc, acc)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, got)
	assert.Len(t, doc.Buffers, 1)
	assert.Len(t, doc.BufferViews, 2)
}

func TestCompressRepacksIntoOneBuffer(t *testing.T) {
	doc := scene.New()
	require.NoError(t, scene.Import(doc, scenetest.Triangle("a")))
	require.NoError(t, scene.Import(doc, scenetest.Triangle("b")))
	require.Len(t, doc.Buffers, 2)

	require.NoError(t, Compress{}.Execute(doc))

	require.Len(t, doc.Buffers, 1)
	assert.Equal(t, len(doc.Buffers[0].Data), doc.Buffers[0].ByteLength)
	for _, v := range doc.BufferViews {
		assert.Equal(t, 0, v.Buffer)
		assert.Zero(t, v.ByteOffset%4)
	}
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		readFloats(t, doc, doc.Meshes[1].Primitives[0].Attributes[gltf.POSITION]))
}

func TestCompressRejectsExternalBuffer(t *testing.T) {
	doc := scene.New()
	doc.Buffers = []*gltf.Buffer{{URI: "geometry.bin", ByteLength: 128}}
	err := Compress{}.Execute(doc)
	require.ErrorIs(t, err, ErrExternalBuffer)
}

type failingPass struct{}

func (failingPass) Name() string                 { return "explode" }
func (failingPass) Desc() string                 { return "always fails" }
func (failingPass) Execute(*gltf.Document) error { return errors.New("boom") }

func TestRunReportsFailingPass(t *testing.T) {
	err := Run(scene.New(), Dedup{}, failingPass{}, Compress{})
	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "explode", te.Pass)
	assert.EqualError(t, err, "optimize: explode: boom")
}
