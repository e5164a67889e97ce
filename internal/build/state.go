package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"asset-pipeline/internal/pipeline"

	"github.com/rs/zerolog/log"
)

const stateVersion = 2

// Entry records which target last built an output and from what inputs.
type Entry struct {
	Target      string `json:"target"`
	Fingerprint string `json:"fingerprint"`
}

// State maps each output, relative to the output root, to the entry that
// last produced it.
type State struct {
	mu      sync.Mutex
	Version int              `json:"version"`
	Outputs map[string]Entry `json:"outputs"`
}

// LoadState reads the build state at path. A missing file yields an empty
// state; so does an unreadable one, which forces a full rebuild.
func LoadState(path string) (*State, error) {
	s := &State{Version: stateVersion, Outputs: make(map[string]Entry)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build: read state %s: %w", path, err)
	}

	var saved State
	if err := json.Unmarshal(data, &saved); err != nil || saved.Version != stateVersion {
		log.Warn().Str("path", path).Msg("discarding unreadable build state")
		return s, nil
	}
	for k, v := range saved.Outputs {
		s.Outputs[k] = v
	}
	return s, nil
}

// Fresh reports whether output was last built from inputs with the same
// fingerprint and still exists under dstRoot.
func (s *State) Fresh(output, fingerprint, dstRoot string) bool {
	s.mu.Lock()
	prev, ok := s.Outputs[output]
	s.mu.Unlock()
	if !ok || prev.Fingerprint != fingerprint {
		return false
	}
	_, err := os.Stat(filepath.Join(dstRoot, filepath.FromSlash(output)))
	return err == nil
}

// Record notes that target built output from inputs with fingerprint.
func (s *State) Record(target, output, fingerprint string) {
	s.mu.Lock()
	s.Outputs[output] = Entry{Target: target, Fingerprint: fingerprint}
	s.mu.Unlock()
}

// Stale returns, sorted, the recorded outputs of the given targets that
// are not in planned.
func (s *State) Stale(targets, planned map[string]bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for output, e := range s.Outputs {
		if targets[e.Target] && !planned[output] {
			out = append(out, output)
		}
	}
	sort.Strings(out)
	return out
}

// Forget drops output from the state.
func (s *State) Forget(output string) {
	s.mu.Lock()
	delete(s.Outputs, output)
	s.mu.Unlock()
}

// Save writes the state to path. An empty path disables persistence.
func (s *State) Save(path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("build: save state: %w", err)
	}
	return nil
}

// Fingerprint hashes the transform with its params and the path, size and
// modification time of every source, in order.
func Fingerprint(t pipeline.Target, sources []pipeline.Source) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00", t.Transform.Name, t.Mode, t.Transform.Ext, t.Transform.Params)
	for _, src := range sources {
		fmt.Fprintf(h, "%s\x00%d\x00%d\x00", src.Rel, src.Size, src.ModTime.UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}
