// Package config provides configuration management for depgate.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (DEPGATE_*)
// 3. Project config (.depgate/config.yaml in cwd)
// 4. Home config (~/.depgate/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all depgate configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// BaseDir is the depgate data directory (default: .agents/depgate).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// RegistryFile is the registry file name inside BaseDir.
	RegistryFile string `yaml:"registry_file" json:"registry_file"`

	// RequiredNovelRuns overrides the distinct-input passing run threshold.
	RequiredNovelRuns int `yaml:"required_novel_runs" json:"required_novel_runs"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput       = "table"
	defaultBaseDir      = ".agents/depgate"
	defaultRegistryFile = "registry.json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:       defaultOutput,
		BaseDir:      defaultBaseDir,
		RegistryFile: defaultRegistryFile,
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// RegistryPath returns the full path of the registry file.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.BaseDir, c.RegistryFile)
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".depgate", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("DEPGATE_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".depgate", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("DEPGATE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("DEPGATE_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("DEPGATE_REGISTRY_FILE"); v != "" {
		cfg.RegistryFile = v
	}
	if v := os.Getenv("DEPGATE_REQUIRED_NOVEL_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequiredNovelRuns = n
		}
	}
	if os.Getenv("DEPGATE_VERBOSE") == "true" || os.Getenv("DEPGATE_VERBOSE") == "1" {
		cfg.Verbose = true
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	mergeStr(&dst.BaseDir, src.BaseDir)
	mergeStr(&dst.RegistryFile, src.RegistryFile)
	mergeInt(&dst.RequiredNovelRuns, src.RequiredNovelRuns)
	if src.Verbose {
		dst.Verbose = true
	}
	return dst
}
