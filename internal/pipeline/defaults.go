package pipeline

var floraGroups = []string{"temperate", "coniferous", "dead", "arctic", "desert"}

// Defaults returns the built-in target table used when the configuration
// names no targets. Only the flora targets are enabled. Map targets keep
// their source directory layout under the output root.
func Defaults() []Spec {
	var specs []Spec
	for _, g := range floraGroups {
		specs = append(specs, Spec{
			Name:      "trees-" + g,
			Dir:       "flora/trees-" + g,
			Match:     "*.glb",
			Mode:      ModeReduce,
			Transform: "flora",
			Dest:      "terrain/models/" + g + ".glb",
		})
	}
	for _, g := range []string{"shrubs", "crops", "bushes"} {
		specs = append(specs, Spec{
			Name:      "flora-" + g,
			Dir:       "flora/" + g,
			Match:     "*.glb",
			Mode:      ModeReduce,
			Transform: "flora",
			Dest:      "terrain/models/" + g + ".glb",
		})
	}

	for _, dir := range []string{"characters", "props", "scenery"} {
		specs = append(specs, Spec{
			Name:      dir,
			Dir:       dir,
			Match:     "*.glb",
			Transform: "optimize",
			Disabled:  true,
		})
	}
	return append(specs,
		Spec{Name: "audio", Dir: "sfx", Match: "*.ogg", Dest: "audio/fx", Disabled: true},
		Spec{Name: "textures", Dir: "textures", Match: "*.png", Disabled: true},
		Spec{Name: "textures-envmap-skybox", File: "textures/envmap/skybox.png", Dest: "textures/skybox.png", Disabled: true},
		Spec{Name: "textures-envmap-checkers", File: "textures/envmap/checkers.png", Dest: "textures/checkers.png", Disabled: true},
		Spec{Name: "textures-index", Dir: "textures", Match: "*.png", Mode: ModeReduce, Transform: "texture-index", Dest: "textures/index.json", Disabled: true},
		Spec{Name: "textures-map", Dir: "images/maps", Match: "*.png", Dest: "maps", Disabled: true},
		Spec{Name: "fonts", Dir: "fonts", Match: "*.ttf", Disabled: true},
	)
}
