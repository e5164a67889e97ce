package scene

import (
	"fmt"
	"slices"

	"github.com/qmuntal/gltf"
)

// Import appends every property of src to dst, offsetting the index
// references src holds so they keep pointing at the same properties.
// Nothing is deduplicated and scenes are appended as separate scenes; the
// default scene of dst is left as it is. src is consumed: its properties
// now belong to dst and must not be used through src afterwards.
func Import(dst, src *gltf.Document) error {
	if err := checkImportable(src); err != nil {
		return err
	}

	var off [numKinds]int
	for k := Kind(0); k < numKinds; k++ {
		off[k] = Count(dst, k)
	}
	eachRef(src, func(k Kind, ref *int) bool {
		*ref += off[k]
		return true
	})

	dst.Buffers = append(dst.Buffers, src.Buffers...)
	dst.BufferViews = append(dst.BufferViews, src.BufferViews...)
	dst.Accessors = append(dst.Accessors, src.Accessors...)
	dst.Images = append(dst.Images, src.Images...)
	dst.Samplers = append(dst.Samplers, src.Samplers...)
	dst.Textures = append(dst.Textures, src.Textures...)
	dst.Materials = append(dst.Materials, src.Materials...)
	dst.Meshes = append(dst.Meshes, src.Meshes...)
	dst.Cameras = append(dst.Cameras, src.Cameras...)
	dst.Skins = append(dst.Skins, src.Skins...)
	dst.Nodes = append(dst.Nodes, src.Nodes...)
	dst.Scenes = append(dst.Scenes, src.Scenes...)
	dst.Animations = append(dst.Animations, src.Animations...)
	dst.ExtensionsUsed = union(dst.ExtensionsUsed, src.ExtensionsUsed)
	dst.ExtensionsRequired = union(dst.ExtensionsRequired, src.ExtensionsRequired)
	return nil
}

func checkImportable(src *gltf.Document) error {
	if HasSparse(src) {
		return &MergeError{Reason: "sparse accessors cannot be rebased"}
	}
	for i, b := range src.Buffers {
		if b.Data == nil && b.ByteLength > 0 {
			return &MergeError{Reason: fmt.Sprintf("buffer %d has no embedded data (uri %q)", i, b.URI)}
		}
	}

	var counts [numKinds]int
	for k := Kind(0); k < numKinds; k++ {
		counts[k] = Count(src, k)
	}
	var bad error
	eachRef(src, func(k Kind, ref *int) bool {
		if bad == nil && (*ref < 0 || *ref >= counts[k]) {
			bad = &MergeError{Reason: fmt.Sprintf("%s index %d out of range (%d present)", k, *ref, counts[k])}
		}
		return true
	})
	if bad != nil {
		return bad
	}
	for i, anim := range src.Animations {
		for _, c := range anim.Channels {
			if c.Sampler < 0 || c.Sampler >= len(anim.Samplers) {
				return &MergeError{Reason: fmt.Sprintf("animation %d: sampler %d out of range", i, c.Sampler)}
			}
		}
	}
	return nil
}

func union(a, b []string) []string {
	for _, s := range b {
		if !slices.Contains(a, s) {
			a = append(a, s)
		}
	}
	return a
}
