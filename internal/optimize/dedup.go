package optimize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog/log"

	"asset-pipeline/internal/scene"
)

// Dedup collapses identical accessors, images, textures, materials and
// meshes onto their first occurrence, then prunes what is left unused.
// Names do not take part in the comparison.
type Dedup struct{}

func (Dedup) Name() string { return "dedup" }

func (Dedup) Desc() string {
	return "Merges byte-identical accessors and identical images, textures, materials and meshes."
}

func (Dedup) Execute(doc *gltf.Document) error {
	steps := []struct {
		kind scene.Kind
		key  func(i int) (string, bool, error)
	}{
		{scene.Accessors, func(i int) (string, bool, error) { return accessorKey(doc, i) }},
		{scene.Images, func(i int) (string, bool, error) { return imageKey(doc, i) }},
		{scene.Textures, func(i int) (string, bool, error) {
			t := *doc.Textures[i]
			t.Name = ""
			return jsonKey(&t)
		}},
		{scene.Materials, func(i int) (string, bool, error) {
			m := *doc.Materials[i]
			m.Name = ""
			return jsonKey(&m)
		}},
		{scene.Meshes, func(i int) (string, bool, error) {
			m := *doc.Meshes[i]
			m.Name = ""
			return jsonKey(&m)
		}},
	}

	for _, step := range steps {
		redirect, dups, err := canonical(scene.Count(doc, step.kind), step.key)
		if err != nil {
			return fmt.Errorf("%s: %w", step.kind, err)
		}
		if dups == 0 {
			continue
		}
		var m scene.IndexMap
		m[step.kind] = redirect
		scene.Rewrite(doc, &m)
		log.Debug().Stringer("kind", step.kind).Int("duplicates", dups).Msg("dedup: collapsed")
	}

	scene.Prune(doc)
	return nil
}

// canonical maps every index to the first index with the same key.
// Entries whose key reports ok=false are never merged.
func canonical(n int, key func(i int) (string, bool, error)) ([]int, int, error) {
	redirect := make([]int, n)
	first := make(map[string]int, n)
	dups := 0
	for i := 0; i < n; i++ {
		redirect[i] = i
		k, ok, err := key(i)
		if err != nil {
			return nil, 0, fmt.Errorf("%d: %w", i, err)
		}
		if !ok {
			continue
		}
		if j, seen := first[k]; seen {
			redirect[i] = j
			dups++
			continue
		}
		first[k] = i
	}
	return redirect, dups, nil
}

func accessorKey(doc *gltf.Document, i int) (string, bool, error) {
	a := doc.Accessors[i]
	raw, err := scene.AccessorBytes(doc, a)
	if errors.Is(err, scene.ErrSparse) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	target := gltf.TargetNone
	if a.BufferView != nil {
		target = doc.BufferViews[*a.BufferView].Target
	}
	return fmt.Sprintf("%d|%d|%d|%t|%d|%s", a.Type, a.ComponentType, a.Count, a.Normalized, target, raw), true, nil
}

func imageKey(doc *gltf.Document, i int) (string, bool, error) {
	img := doc.Images[i]
	if img.BufferView == nil {
		return "uri|" + img.URI, img.URI != "", nil
	}
	raw, err := scene.ViewBytes(doc, *img.BufferView)
	if err != nil {
		return "", false, err
	}
	return "view|" + img.MimeType + "|" + string(raw), true, nil
}

func jsonKey(v any) (string, bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}
