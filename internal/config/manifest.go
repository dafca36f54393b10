package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Manifest overrides the offline proxy's resource lists. Empty fields keep the built-in defaults.
type Manifest struct {
	Version       string   `yaml:"version"`
	CoreResources []string `yaml:"coreResources"`
	AssetPatterns []string `yaml:"assetPatterns"`
	APIPatterns   []string `yaml:"apiPatterns"`
}

// LoadManifest reads a YAML manifest. An empty path yields an empty manifest.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return Manifest{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest yaml: %w", err)
	}
	return m, nil
}
