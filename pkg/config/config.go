package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/triage/pkg/analyzer/deps"
	"github.com/panbanda/triage/pkg/analyzer/smells"
)

// Config holds all configuration options for triage.
type Config struct {
	// Pipeline execution settings
	Pipeline PipelineConfig `koanf:"pipeline"`

	// Code smell thresholds
	Thresholds smells.Thresholds `koanf:"thresholds"`

	// Manifest search settings
	Dependencies DependencyConfig `koanf:"dependencies"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Report persistence
	Store StoreConfig `koanf:"store"`

	// Logging
	Log LogConfig `koanf:"log"`
}

// PipelineConfig controls a pipeline run.
type PipelineConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	Workers     int           `koanf:"workers"` // 0 means 2x NumCPU
	MaxFileSize int64         `koanf:"max_file_size"`
}

// DependencyConfig controls the manifest search.
type DependencyConfig struct {
	MaxDepth int      `koanf:"max_depth"`
	SkipDirs []string `koanf:"skip_dirs"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
	Gitignore  bool     `koanf:"gitignore"`
}

// StoreConfig locates the report database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Timeout:     10 * time.Minute,
			MaxFileSize: 1 << 20,
		},
		Thresholds: smells.DefaultThresholds(),
		Dependencies: DependencyConfig{
			MaxDepth: deps.DefaultMaxDepth,
			SkipDirs: append([]string(nil), deps.DefaultSkipDirs...),
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".triage",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Store: StoreConfig{
			Path: ".triage/store",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"triage.toml",
		"triage.yaml",
		"triage.yml",
		"triage.json",
		".triage.toml",
		".triage.yaml",
		".triage.yml",
		".triage.json",
	}

	searchDirs := []string{".", ".triage"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.Timeout <= 0 {
		errs = append(errs, errors.New("pipeline.timeout must be positive"))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, errors.New("pipeline.workers must not be negative"))
	}
	th := c.Thresholds
	if th.FunctionLines <= 0 || th.Complexity <= 0 || th.Nesting <= 0 {
		errs = append(errs, errors.New("thresholds must be positive"))
	}
	if th.DuplicateWindow <= 0 || th.DuplicateMinLines <= 0 {
		errs = append(errs, errors.New("duplicate window and min lines must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
