// Package config holds emixa's YAML-backed configuration: where the
// harness lives, how to invoke it, and where results and artifacts go.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full emixa configuration.
type Config struct {
	Harness HarnessConfig `yaml:"harness"`
	Output  OutputConfig  `yaml:"output"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// HarnessConfig describes the external characterization harness.
type HarnessConfig struct {
	// Command is the build tool binary that hosts the characterizer tests.
	Command string `yaml:"command"`
	// Args are fixed arguments passed before the test specification.
	Args []string `yaml:"args"`
	// Dir is the harness project directory the command runs in.
	Dir string `yaml:"dir"`
	// Timeout bounds one harness invocation, e.g. "10m".
	Timeout string `yaml:"timeout"`
}

// OutputConfig describes the harness-determined output locations.
type OutputConfig struct {
	// Dir is the root under which the harness writes one directory per
	// test; artifacts are emitted next to the result files.
	Dir string `yaml:"dir"`
}

// CatalogConfig controls the sweep-history catalog.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Harness: HarnessConfig{
			Command: "sbt",
			Timeout: "10m",
		},
		Output: OutputConfig{Dir: "output"},
		Catalog: CatalogConfig{
			Enabled: true,
			Path:    "output/catalog.db",
		},
	}
}

// Load reads the YAML config at path. A missing file is not an error; the
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TimeoutDuration parses the harness timeout, falling back to ten minutes
// when unset or unparsable.
func (h HarnessConfig) TimeoutDuration() time.Duration {
	if h.Timeout == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(h.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
