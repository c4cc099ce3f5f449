package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halvar/go-docfilter/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds file-based defaults for the CLI. Flags override config,
// and config overrides document front matter.
type Config struct {
	Format    string   `yaml:"format"`
	Mode      string   `yaml:"mode"`
	AssetDir  string   `yaml:"assetDir"`
	Font      string   `yaml:"font"`
	Libraries []string `yaml:"tikzLibraries"`
	NoImages  bool     `yaml:"noImages"`
}

// DefaultConfig returns a neutral configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name. A
// value containing a path separator is treated as a path; otherwise it
// is searched as <name>.yaml in the standard locations. Returns
// ErrConfigNotFound if nothing matches (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	path := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		found, err := findConfig(nameOrPath)
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return cfg, nil
}

// findConfig searches the standard locations for a named config:
// ./<name>.yaml, then ~/.config/docfilter/<name>.yaml.
func findConfig(name string) (string, error) {
	candidates := []string{name + ".yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "docfilter", name+".yaml"))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrConfigNotFound, name, strings.Join(candidates, ", "))
}

// merge overlays non-empty flag values onto the config.
func (c *Config) merge(f *cliFlags) {
	if f.to != "" {
		c.Format = f.to
	}
	if f.mode != "" {
		c.Mode = f.mode
	}
	if f.assetDir != "" {
		c.AssetDir = f.assetDir
	}
	if f.font != "" {
		c.Font = f.font
	}
	if len(f.libraries) > 0 {
		c.Libraries = append(c.Libraries, f.libraries...)
	}
	if f.noImages {
		c.NoImages = true
	}
}
