package adapters

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Options carries backend-specific construction knobs. Backends that do not
// understand an option silently ignore it; this is intentional.
type Options struct {
	// Headless enables print/headless behavior on backends that have the
	// concept (Claude Code).
	Headless bool

	// Runner overrides the process executor, for tests.
	Runner CommandRunner
}

func (o Options) runnerOrDefault() CommandRunner {
	if o.Runner != nil {
		return o.Runner
	}
	return NewExecRunner()
}

// UnavailableError reports that the resolved agent backend cannot be run.
// It carries remediation text so the operator can act on it directly.
type UnavailableError struct {
	Agent       AgentType
	Remediation string
	InstallURL  string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("agent %q is not available: %s (see %s)", e.Agent, e.Remediation, e.InstallURL)
}

// ResolveAgentType picks the effective agent. Priority, highest first: the
// explicit identity, the process-wide environment override, the default.
func ResolveAgentType(explicit AgentType, env func(string) string) AgentType {
	if explicit != "" {
		return explicit
	}
	if env != nil {
		if value := strings.TrimSpace(env(EnvDefaultAgent)); value != "" {
			return AgentType(value)
		}
	}
	return DefaultAgent
}

// New constructs the adapter for the given agent and eagerly verifies it is
// runnable. An unavailable backend fails here, within the first moments of a
// command, rather than mid-loop after partial work. An empty agent resolves
// through the environment override and the default backend.
func New(ctx context.Context, agent AgentType, opts Options) (Adapter, error) {
	if agent == "" {
		agent = ResolveAgentType("", os.Getenv)
	}

	adapter, err := construct(agent, opts)
	if err != nil {
		return nil, err
	}

	if !adapter.CheckAvailability(ctx) {
		meta := adapter.Metadata()
		return nil, &UnavailableError{
			Agent:       agent,
			Remediation: fmt.Sprintf("install the %s CLI and ensure %q is on PATH", meta.DisplayName, meta.CLICommand),
			InstallURL:  installURL(agent),
		}
	}

	return adapter, nil
}

func construct(agent AgentType, opts Options) (Adapter, error) {
	switch agent {
	case AgentOpenCode:
		return NewOpenCodeAdapter(opts), nil
	case AgentClaudeCode:
		return NewClaudeCodeAdapter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported agent %q (supported: opencode, claude-code)", agent)
	}
}

func installURL(agent AgentType) string {
	switch agent {
	case AgentClaudeCode:
		return "https://docs.anthropic.com/en/docs/claude-code"
	default:
		return "https://opencode.ai/docs"
	}
}

// HeadlessFlag reports the adapter's headless mode as an optional boolean,
// for backends that have the concept. Backends without it return nil.
func HeadlessFlag(adapter Adapter) *bool {
	type headlessReporter interface{ Headless() bool }
	if reporter, ok := adapter.(headlessReporter); ok {
		value := reporter.Headless()
		return &value
	}
	return nil
}
