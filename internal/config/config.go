// Package config loads pyflyby's operator-tunable settings the way the
// corpus loads its own: defaults, overridden by a global YAML file,
// overridden by a project-local YAML file, overridden by environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deshaw/pyflyby/pkg/format"
)

// ProbeMode selects the probe.Resolver that answers what a module
// exports (replace-star) and whether an import resolves
// (remove-broken).
type ProbeMode string

const (
	// ProbeNull selects probe.Null: no module's exports are known and
	// every import resolves, so replace-star and remove-broken change
	// nothing.
	ProbeNull ProbeMode = "null"
	// ProbeRuntime defers to a caller-registered probe.Resolver looked
	// up by name (spec.md §4.11), e.g. one backed by a live interpreter.
	ProbeRuntime ProbeMode = "runtime"
)

// Settings is the immutable configuration pyflyby loads before any
// rewrite operation: the rendering parameters, the default ImportDB
// path specification, and the probe selection.
type Settings struct {
	// Format holds the serialized FormatParams (spec.md §4.9): column
	// widths, alignment, grouping, and hanging-indent behavior.
	Format format.FormatParams `yaml:"format"`

	// PathSpec is the default ordered list of ImportDB contributor
	// roots (files or directories) consulted when no --db flag is
	// given, analogous to PYFLYBY_PATH.
	PathSpec []string `yaml:"path_spec" env:"PYFLYBY_PATH"`

	// Probe selects which probe.Resolver the replace-star and
	// remove-broken commands use: "null" (probe.Null) or "runtime" (a
	// caller-registered resolver looked up by ProbeName).
	Probe     ProbeMode `yaml:"probe" env:"PYFLYBY_PROBE"`
	ProbeName string    `yaml:"probe_name" env:"PYFLYBY_PROBE_NAME"`

	// AllowConflicts records whether pretty_print may tolerate more than
	// one candidate import sharing a bound name (spec.md §4.6). It is
	// loaded with the other settings, but no command reads it: reformat takes
	// this choice from its own --allow-conflicts flag.
	AllowConflicts bool `yaml:"allow_conflicts" env:"PYFLYBY_ALLOW_CONFLICTS"`

	// Verbose is loaded with the other settings, but no command reads
	// it: diagnostics are only written in their positioned form and are
	// never replayed through the leveled logger.
	Verbose bool `yaml:"verbose" env:"PYFLYBY_VERBOSE"`
}

// DefaultSettings returns Settings with pyflyby's historical defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Format:         format.DefaultFormatParams(),
		PathSpec:       nil,
		Probe:          ProbeNull,
		ProbeName:      "",
		AllowConflicts: false,
		Verbose:        false,
	}
}

// globalConfigFilePath returns the global config file path (~/.pyflyby-go/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pyflyby-go/config.yaml"
	}
	return filepath.Join(home, ".pyflyby-go", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.pyflyby-go/config.yaml)
func projectConfigFilePath() string {
	return ".pyflyby-go/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
//  1. Environment variables
//  2. Project-level config (./.pyflyby-go/config.yaml)
//  3. Global config (~/.pyflyby-go/config.yaml)
//  4. Defaults
func Load() (*Settings, error) {
	cfg := DefaultSettings()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path,
// creating parent directories if they don't exist.
func (c *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies PYFLYBY_* environment variable overrides.
func applyEnvOverrides(cfg *Settings) {
	if v := os.Getenv("PYFLYBY_PATH"); v != "" {
		cfg.PathSpec = strings.Split(v, string(os.PathListSeparator))
	}
	if v := os.Getenv("PYFLYBY_PROBE"); v != "" {
		cfg.Probe = ProbeMode(v)
	}
	if v := os.Getenv("PYFLYBY_PROBE_NAME"); v != "" {
		cfg.ProbeName = v
	}
	if v := os.Getenv("PYFLYBY_ALLOW_CONFLICTS"); v != "" {
		cfg.AllowConflicts = parseBool(v)
	}
	if v := os.Getenv("PYFLYBY_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("PYFLYBY_MAX_LINE_LENGTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.Format.MaxLineLength = i
		}
	}
	if v := os.Getenv("PYFLYBY_INDENT_CONTINUATION"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			cfg.Format.IndentContinuation = i
		}
	}
	if v := os.Getenv("PYFLYBY_SEPARATE_FROM_IMPORTS"); v != "" {
		cfg.Format.SeparateFromImports = parseBool(v)
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}

// Validate checks that the configuration has valid required fields.
func (c *Settings) Validate() error {
	if err := c.Format.Validate(); err != nil {
		return err
	}

	switch c.Probe {
	case ProbeNull:
	case ProbeRuntime:
		if c.ProbeName == "" {
			return fmt.Errorf("probe_name is required when probe is \"runtime\"")
		}
	default:
		return fmt.Errorf("invalid probe: %s (must be \"null\" or \"runtime\")", c.Probe)
	}

	return nil
}
