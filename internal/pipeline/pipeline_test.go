package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDefaultsAreValid(t *testing.T) {
	targets, err := Build(Defaults(), NewRegistry(Options{}))
	require.NoError(t, err)

	enabled, err := Select(targets, nil)
	require.NoError(t, err)
	var names []string
	for _, tg := range enabled {
		names = append(names, tg.Name)
		assert.Equal(t, ModeReduce, tg.Mode)
		assert.Equal(t, "flora", tg.Transform.Name)
	}
	assert.Equal(t, []string{
		"trees-temperate", "trees-coniferous", "trees-dead", "trees-arctic", "trees-desert",
		"flora-shrubs", "flora-crops", "flora-bushes",
	}, names)
	assert.Equal(t, "terrain/models/temperate.glb", enabled[0].Dest)
}

func TestDefaultsKeepSourceLayout(t *testing.T) {
	targets, err := Build(Defaults(), NewRegistry(Options{}))
	require.NoError(t, err)
	byName := make(map[string]Target, len(targets))
	for _, tg := range targets {
		byName[tg.Name] = tg
	}

	tests := []struct {
		target, transform, rel, want string
	}{
		{"characters", "optimize", "knight.glb", "characters/knight.glb"},
		{"props", "optimize", "crate.glb", "props/crate.glb"},
		{"scenery", "optimize", "rocks.glb", "scenery/rocks.glb"},
		{"audio", "copy", "bird.ogg", "audio/fx/bird.ogg"},
		{"textures", "copy", "moss.png", "textures/moss.png"},
		{"textures-envmap-skybox", "copy", "skybox.png", "textures/skybox.png"},
		{"textures-envmap-checkers", "copy", "checkers.png", "textures/checkers.png"},
		{"textures-index", "texture-index", "", "textures/index.json"},
		{"textures-map", "copy", "island.png", "maps/island.png"},
		{"fonts", "copy", "serif.ttf", "fonts/serif.ttf"},
	}
	for _, tt := range tests {
		tg, ok := byName[tt.target]
		require.True(t, ok, tt.target)
		assert.False(t, tg.Enabled, tt.target)
		assert.Equal(t, tt.transform, tg.Transform.Name, tt.target)
		assert.Equal(t, tt.want, tg.Output(Source{Rel: tt.rel}), tt.target)
	}
}

func TestBuildRejectsInvalidTargets(t *testing.T) {
	reg := NewRegistry(Options{})
	tests := []struct {
		name  string
		specs []Spec
		want  error
	}{
		{
			name:  "duplicate",
			specs: []Spec{{Name: "a", Dir: "x"}, {Name: "a", Dir: "y"}},
			want:  ErrDuplicateTarget,
		},
		{
			name:  "unknown transform",
			specs: []Spec{{Name: "a", Dir: "x", Transform: "draco"}},
			want:  ErrUnknownTransform,
		},
		{
			name:  "reduce transform in map mode",
			specs: []Spec{{Name: "a", Dir: "x", Transform: "flora"}},
			want:  ErrModeMismatch,
		},
		{
			name:  "map transform in reduce mode",
			specs: []Spec{{Name: "a", Dir: "x", Mode: ModeReduce, Transform: "webp", Dest: "out.webp"}},
			want:  ErrModeMismatch,
		},
		{
			name:  "file and dir",
			specs: []Spec{{Name: "a", Dir: "x", File: "x/y.png", Dest: "y.png"}},
			want:  ErrInvalidTarget,
		},
		{
			name:  "no source",
			specs: []Spec{{Name: "a"}},
			want:  ErrInvalidTarget,
		},
		{
			name:  "reduce without dest",
			specs: []Spec{{Name: "a", Dir: "x", Mode: ModeReduce, Transform: "flora"}},
			want:  ErrInvalidTarget,
		},
		{
			name:  "dest escapes root",
			specs: []Spec{{Name: "a", Dir: "x", Dest: "../elsewhere"}},
			want:  ErrInvalidTarget,
		},
		{
			name:  "bad pattern",
			specs: []Spec{{Name: "a", Dir: "x", Match: "[a-"}},
			want:  ErrInvalidTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.specs, reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildInfersModeAndDest(t *testing.T) {
	targets, err := Build([]Spec{
		{Name: "sky", File: "textures/sky.png", Dest: "sky.png"},
		{Name: "sfx", Dir: "sfx"},
	}, NewRegistry(Options{}))
	require.NoError(t, err)

	assert.Equal(t, ModeSingle, targets[0].Mode)
	assert.Equal(t, ModeMap, targets[1].Mode)
	assert.Equal(t, "copy", targets[1].Transform.Name)
	assert.Equal(t, "sfx", targets[1].Dest)
	assert.Equal(t, "*", targets[1].Source.Match)
}

func TestSelectorListsSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "flora/trees/pine.glb", "p")
	writeFile(t, root, "flora/trees/ash.glb", "a")
	writeFile(t, root, "flora/trees/Birch.glb", "b")
	writeFile(t, root, "flora/trees/notes.txt", "n")
	writeFile(t, root, "flora/trees/old/oak.glb", "o")

	sel, err := NewDirSelector("flora/trees", "*.glb")
	require.NoError(t, err)
	srcs, err := sel.List(root)
	require.NoError(t, err)

	var rels []string
	for _, s := range srcs {
		rels = append(rels, s.Rel)
	}
	assert.Equal(t, []string{"Birch.glb", "ash.glb", "pine.glb"}, rels)
	assert.Equal(t, int64(1), srcs[0].Size)

	deep, err := NewDirSelector("flora/trees", "**.glb")
	require.NoError(t, err)
	srcs, err = deep.List(root)
	require.NoError(t, err)
	assert.Len(t, srcs, 4)
	assert.Equal(t, "old/oak.glb", srcs[2].Rel)
}

func TestSelectorMissingSource(t *testing.T) {
	root := t.TempDir()
	sel, err := NewDirSelector("missing", "*")
	require.NoError(t, err)
	_, err = sel.List(root)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewFileSelector("missing.png").List(root)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputPaths(t *testing.T) {
	targets, err := Build([]Spec{
		{Name: "tex", Dir: "textures", Transform: "webp", Dest: "tex"},
		{Name: "fonts", Dir: "fonts"},
		{Name: "idx", Dir: "textures", Mode: ModeReduce, Transform: "texture-index", Dest: "textures/index.json"},
	}, NewRegistry(Options{}))
	require.NoError(t, err)

	assert.Equal(t, "tex/rock/moss.webp", targets[0].Output(Source{Rel: "rock/moss.png"}))
	assert.Equal(t, "fonts/serif.ttf", targets[1].Output(Source{Rel: "serif.ttf"}))
	assert.Equal(t, "textures/index.json", targets[2].Output(Source{Rel: "ignored.png"}))
}

func TestSelectByName(t *testing.T) {
	targets, err := Build(Defaults(), NewRegistry(Options{}))
	require.NoError(t, err)

	got, err := Select(targets, []string{"fonts"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Enabled)

	_, err = Select(targets, []string{"nope"})
	assert.Error(t, err)
}

func TestCopyTransformClones(t *testing.T) {
	tr, err := NewRegistry(Options{}).Lookup("copy")
	require.NoError(t, err)
	in := []byte("abc")
	out, err := tr.Map("a.txt", in)
	require.NoError(t, err)
	out[0] = 'z'
	assert.Equal(t, "abc", string(in))
}

func TestRegistryNames(t *testing.T) {
	assert.Equal(t,
		[]string{"copy", "flora", "optimize", "png", "texture-index", "webp"},
		NewRegistry(Options{}).Names())
}
