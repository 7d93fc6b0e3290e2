package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveAgentTypePriority(t *testing.T) {
	env := envMap(map[string]string{EnvDefaultAgent: "claude-code"})

	// Explicit identity beats the environment.
	assert.Equal(t, AgentOpenCode, ResolveAgentType(AgentOpenCode, env))

	// Environment beats the default.
	assert.Equal(t, AgentClaudeCode, ResolveAgentType("", env))

	// Nothing set falls back to the default backend.
	assert.Equal(t, DefaultAgent, ResolveAgentType("", envMap(nil)))
	assert.Equal(t, DefaultAgent, ResolveAgentType("", nil))
}

func TestNewGatesOnAvailability(t *testing.T) {
	runner := &fakeRunner{
		captures: []Capture{{ExitCode: -1}},
		errs:     []error{errors.New("not installed")},
	}

	_, err := New(context.Background(), AgentOpenCode, Options{Runner: runner})
	require.Error(t, err)

	var unavailErr *UnavailableError
	require.True(t, errors.As(err, &unavailErr))
	assert.Equal(t, AgentOpenCode, unavailErr.Agent)
	assert.NotEmpty(t, unavailErr.Remediation)
	assert.NotEmpty(t, unavailErr.InstallURL)
}

func TestNewReturnsAvailableAdapter(t *testing.T) {
	runner := &fakeRunner{captures: []Capture{{Stdout: "1.2.0", ExitCode: 0}}}

	adapter, err := New(context.Background(), AgentClaudeCode, Options{Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, AgentClaudeCode, adapter.Metadata().Name)
	assert.Equal(t, "1.2.0", adapter.Metadata().Version)
}

func TestNewResolvesEmptyAgent(t *testing.T) {
	t.Setenv(EnvDefaultAgent, "claude-code")
	runner := &fakeRunner{captures: []Capture{{Stdout: "2.0.1", ExitCode: 0}}}

	adapter, err := New(context.Background(), "", Options{Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, AgentClaudeCode, adapter.Metadata().Name)
}

func TestNewFallsBackToDefaultAgent(t *testing.T) {
	t.Setenv(EnvDefaultAgent, "")
	runner := &fakeRunner{captures: []Capture{{Stdout: "0.9.3", ExitCode: 0}}}

	adapter, err := New(context.Background(), "", Options{Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, DefaultAgent, adapter.Metadata().Name)
}

func TestNewRejectsUnknownAgent(t *testing.T) {
	_, err := New(context.Background(), AgentType("cursor"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported agent")
}

func TestValidAgentType(t *testing.T) {
	assert.True(t, ValidAgentType(AgentOpenCode))
	assert.True(t, ValidAgentType(AgentClaudeCode))
	assert.False(t, ValidAgentType(AgentType("")))
	assert.False(t, ValidAgentType(AgentType("codex")))
}
