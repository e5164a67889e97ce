package build

import (
	"encoding/json"
	"sort"
)

// ManifestEntry represents one output in the build manifest.
type ManifestEntry struct {
	Output  string `json:"output"`
	Target  string `json:"target"`
	Sources int    `json:"sources"`
}

// WriteManifest writes the successful outputs of results, sorted by output
// path, as JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success || r.Output == "" {
			continue
		}
		entries = append(entries, ManifestEntry{
			Output:  r.Output,
			Target:  r.Target,
			Sources: r.Sources,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Output < entries[j].Output })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}
