// Package config handles ralphctl configuration resolution and validation.
//
// Configuration is assembled from five layered sources, highest priority
// first: caller overrides, an explicitly named file, a project-local
// dotfile, a global user config file, and built-in defaults. Merging is
// field-granular: a source only contributes the fields it actually sets.
package config

import (
	"fmt"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
)

// Permissions is the coarse permission posture passed to the agent.
type Permissions string

const (
	// PermissionsAllowAll lets the agent perform file and system
	// operations without prompting.
	PermissionsAllowAll Permissions = "allow-all"

	// PermissionsAsk requires the agent to prompt before operations.
	PermissionsAsk Permissions = "ask"
)

// Config is the merged, validated configuration for one command invocation.
// It is built once at command start and never mutated afterwards.
type Config struct {
	// SmartModel is the model identifier used for the "smart" role.
	SmartModel string `yaml:"smart_model" json:"smart_model" toml:"smart_model"`

	// FastModel is the model identifier used for the "fast" role.
	FastModel string `yaml:"fast_model" json:"fast_model" toml:"fast_model"`

	// Agent selects the agent backend driving the loop.
	Agent adapters.AgentType `yaml:"agent" json:"agent" toml:"agent"`

	// MaxIterations bounds the iteration loop. Must be positive.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations" toml:"max_iterations"`

	// Permissions is the permission posture for agent runs.
	Permissions Permissions `yaml:"permissions" json:"permissions" toml:"permissions"`
}

// Overrides carries per-invocation values, typically from CLI flags.
// Nil fields are absent and never clobber lower-priority sources.
type Overrides struct {
	SmartModel    *string
	FastModel     *string
	Agent         *adapters.AgentType
	MaxIterations *int
	Permissions   *Permissions
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SmartModel:    "anthropic/claude-opus-4-5",
		FastModel:     "anthropic/claude-haiku-4-5",
		Agent:         adapters.AgentOpenCode,
		MaxIterations: 10,
		Permissions:   PermissionsAsk,
	}
}

// ValidationError describes a configuration field that failed validation,
// including the source that contributed the offending value.
type ValidationError struct {
	Field  string
	Value  string
	Source string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config: %s %s (value %q from %s)", e.Field, e.Reason, e.Value, e.Source)
	}
	return fmt.Sprintf("config: %s %s (value %q)", e.Field, e.Reason, e.Value)
}

// Validate checks enumerated values and numeric constraints. The sources map
// records which layer contributed each field, for error attribution.
func (c *Config) Validate(sources map[string]string) error {
	if !adapters.ValidAgentType(c.Agent) {
		return &ValidationError{
			Field:  "agent",
			Value:  string(c.Agent),
			Source: sources["agent"],
			Reason: "must be one of opencode, claude-code",
		}
	}

	switch c.Permissions {
	case PermissionsAllowAll, PermissionsAsk:
	default:
		return &ValidationError{
			Field:  "permissions",
			Value:  string(c.Permissions),
			Source: sources["permissions"],
			Reason: "must be one of allow-all, ask",
		}
	}

	if c.MaxIterations <= 0 {
		return &ValidationError{
			Field:  "max_iterations",
			Value:  fmt.Sprintf("%d", c.MaxIterations),
			Source: sources["max_iterations"],
			Reason: "must be a positive integer",
		}
	}

	return nil
}

// ModelFor returns the model identifier for a named role.
func (c *Config) ModelFor(role string) string {
	switch role {
	case "fast":
		return c.FastModel
	default:
		return c.SmartModel
	}
}
