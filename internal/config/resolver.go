package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
)

// Well-known configuration locations. Auto-discovered files probe each
// supported extension in order; the first one that exists wins.
const (
	globalConfigDir  = "ralphctl"
	globalConfigName = "config"
	projectDotfile   = ".ralphctl"
)

var configExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// fileValues mirrors Config with every field optional, so a file only
// contributes the fields it actually sets.
type fileValues struct {
	SmartModel    *string             `yaml:"smart_model" json:"smart_model" toml:"smart_model"`
	FastModel     *string             `yaml:"fast_model" json:"fast_model" toml:"fast_model"`
	Agent         *adapters.AgentType `yaml:"agent" json:"agent" toml:"agent"`
	MaxIterations *int                `yaml:"max_iterations" json:"max_iterations" toml:"max_iterations"`
	Permissions   *Permissions        `yaml:"permissions" json:"permissions" toml:"permissions"`
}

// Resolver merges configuration sources. The zero value is not usable; use
// NewResolver, which wires the process environment and working directory.
type Resolver struct {
	// HomeDir is the user home directory used for global config discovery.
	HomeDir string

	// ProjectDir is the directory probed for the project dotfile.
	ProjectDir string

	// Env looks up environment variables. Overridable for tests.
	Env func(string) string
}

// NewResolver returns a Resolver bound to the current process environment.
func NewResolver() *Resolver {
	home, _ := os.UserHomeDir()
	wd, _ := os.Getwd()
	return &Resolver{HomeDir: home, ProjectDir: wd, Env: os.Getenv}
}

// Resolve merges all configuration sources and validates the result.
//
// Priority, highest first: overrides, the explicit file (missing is a hard
// error), the project dotfile (missing is skipped), the global file (missing
// is skipped), the process-wide agent override, built-in defaults.
func (r *Resolver) Resolve(overrides Overrides, explicitPath string) (*Config, error) {
	cfg := Default()
	sources := map[string]string{}

	if r.Env != nil {
		if agent := strings.TrimSpace(r.Env(adapters.EnvDefaultAgent)); agent != "" {
			cfg.Agent = adapters.AgentType(agent)
			sources["agent"] = "environment (" + adapters.EnvDefaultAgent + ")"
		}
	}

	if path := r.discoverGlobal(); path != "" {
		if err := applyFile(cfg, sources, path); err != nil {
			return nil, err
		}
	}

	if path := r.discoverProject(); path != "" {
		if err := applyFile(cfg, sources, path); err != nil {
			return nil, err
		}
	}

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		if err := applyFile(cfg, sources, explicitPath); err != nil {
			return nil, err
		}
	}

	applyOverrides(cfg, sources, overrides)

	if err := cfg.Validate(sources); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (r *Resolver) discoverGlobal() string {
	dirs := []string{}
	if xdg := r.env("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, globalConfigDir))
	}
	if r.HomeDir != "" {
		dirs = append(dirs, filepath.Join(r.HomeDir, ".config", globalConfigDir))
	}

	for _, dir := range dirs {
		for _, ext := range configExtensions {
			path := filepath.Join(dir, globalConfigName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func (r *Resolver) discoverProject() string {
	if r.ProjectDir == "" {
		return ""
	}
	for _, ext := range configExtensions {
		path := filepath.Join(r.ProjectDir, projectDotfile+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (r *Resolver) env(key string) string {
	if r.Env == nil {
		return ""
	}
	return strings.TrimSpace(r.Env(key))
}

func applyFile(cfg *Config, sources map[string]string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	var values fileValues
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &values)
	case ".toml":
		err = toml.Unmarshal(data, &values)
	default:
		err = yaml.Unmarshal(data, &values)
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	if values.SmartModel != nil {
		cfg.SmartModel = *values.SmartModel
		sources["smart_model"] = path
	}
	if values.FastModel != nil {
		cfg.FastModel = *values.FastModel
		sources["fast_model"] = path
	}
	if values.Agent != nil {
		cfg.Agent = *values.Agent
		sources["agent"] = path
	}
	if values.MaxIterations != nil {
		cfg.MaxIterations = *values.MaxIterations
		sources["max_iterations"] = path
	}
	if values.Permissions != nil {
		cfg.Permissions = *values.Permissions
		sources["permissions"] = path
	}
	return nil
}

func applyOverrides(cfg *Config, sources map[string]string, overrides Overrides) {
	if overrides.SmartModel != nil {
		cfg.SmartModel = *overrides.SmartModel
		sources["smart_model"] = "flag"
	}
	if overrides.FastModel != nil {
		cfg.FastModel = *overrides.FastModel
		sources["fast_model"] = "flag"
	}
	if overrides.Agent != nil {
		cfg.Agent = *overrides.Agent
		sources["agent"] = "flag"
	}
	if overrides.MaxIterations != nil {
		cfg.MaxIterations = *overrides.MaxIterations
		sources["max_iterations"] = "flag"
	}
	if overrides.Permissions != nil {
		cfg.Permissions = *overrides.Permissions
		sources["permissions"] = "flag"
	}
}
