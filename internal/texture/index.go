package texture

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Entry describes one texture in the catalog.
type Entry struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Catalog collects texture dimensions into a JSON index keyed by the
// lowercase file stem, so the runtime can look textures up by name.
type Catalog struct {
	entries map[string]Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Add records the texture stored at file (slash separated, relative to the
// selector directory).
func (c *Catalog) Add(file string, raw []byte) error {
	cfg, format, err := DecodeConfig(file, raw)
	if err != nil {
		return err
	}

	base := path.Base(file)
	stem := strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
	if prev, exists := c.entries[stem]; exists {
		return fmt.Errorf("texture: %s and %s share the name %q", prev.File, file, stem)
	}
	c.entries[stem] = Entry{
		Name:   stem,
		File:   file,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}
	return nil
}

// Len returns the number of catalogued textures.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Finish returns the catalog as a JSON array sorted by name.
func (c *Catalog) Finish() ([]byte, error) {
	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return json.MarshalIndent(entries, "", "  ")
}
