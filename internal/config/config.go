package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"asset-pipeline/internal/pipeline"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config holds the source and output roots, build settings and targets.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" toml:"base_dir" yaml:"base_dir"`
	SrcRoot   string `json:"src_root" toml:"src_root" yaml:"src_root"`
	DstRoot   string `json:"dst_root" toml:"dst_root" yaml:"dst_root"`
	StateFile string `json:"state_file" toml:"state_file" yaml:"state_file"`

	// Build settings
	Workers        int `json:"workers" toml:"workers" yaml:"workers"`
	MaxTextureSize int `json:"max_texture_size" toml:"max_texture_size" yaml:"max_texture_size"`

	Targets []pipeline.Spec `json:"targets" toml:"targets" yaml:"targets"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir string
	SrcRoot string
	DstRoot string
	Workers int
}

// Load reads a TOML, YAML or JSON config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config: parse %s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported format %q", path, ext)
	}

	// Relative paths in a config file are relative to the file.
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}
	return cfg, nil
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.SrcRoot != "" {
		c.SrcRoot = flags.SrcRoot
	}
	if flags.DstRoot != "" {
		c.DstRoot = flags.DstRoot
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	var err error
	if c.BaseDir, err = expand(c.BaseDir, ""); err != nil {
		return err
	}
	if c.SrcRoot, err = expand(c.SrcRoot, c.BaseDir); err != nil {
		return err
	}
	if c.DstRoot, err = expand(c.DstRoot, c.BaseDir); err != nil {
		return err
	}
	if c.SrcRoot == "" {
		c.SrcRoot = filepath.Join(c.BaseDir, "artwork")
	}
	if c.DstRoot == "" {
		c.DstRoot = filepath.Join(c.BaseDir, "assets")
	}
	if c.StateFile, err = expand(c.StateFile, c.DstRoot); err != nil {
		return err
	}
	if c.StateFile == "" {
		c.StateFile = filepath.Join(c.DstRoot, ".pipeline-state.json")
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MaxTextureSize < 0 {
		c.MaxTextureSize = 0
	}
	if len(c.Targets) == 0 {
		c.Targets = pipeline.Defaults()
	}
	return nil
}

// expand resolves "~" and makes p absolute against base. Empty stays empty.
func expand(p, base string) (string, error) {
	if p == "" {
		return "", nil
	}
	p, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	switch {
	case filepath.IsAbs(p):
	case base != "":
		p = filepath.Join(base, p)
	default:
		if p, err = filepath.Abs(p); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
	}
	return filepath.Clean(p), nil
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if hasArtwork(base) {
				return base
			}
		}
	}

	// Walk up from the working directory
	cwd, _ := os.Getwd()
	for dir := cwd; dir != ""; {
		if hasArtwork(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

func hasArtwork(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "artwork"))
	return err == nil && info.IsDir()
}
