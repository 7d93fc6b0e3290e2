// Package adapters defines the uniform interface for driving external
// coding-agent CLIs, plus one concrete implementation per supported backend.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
)

// AgentType identifies a supported agent backend.
type AgentType string

const (
	AgentOpenCode   AgentType = "opencode"
	AgentClaudeCode AgentType = "claude-code"
)

// DefaultAgent is the backend used when nothing selects one.
const DefaultAgent = AgentOpenCode

// EnvDefaultAgent is the environment variable naming a process-wide default
// agent. It is read once at command start, never mid-run.
const EnvDefaultAgent = "RALPHCTL_AGENT"

// CompletionMarker is the literal token the instruction asks the agent to
// emit when it considers its task done. Detection is an exact, case-sensitive
// substring match; there is no semantic understanding of "done".
const CompletionMarker = "<promise>COMPLETE</promise>"

// ValidAgentType reports whether t names a supported backend.
func ValidAgentType(t AgentType) bool {
	switch t {
	case AgentOpenCode, AgentClaudeCode:
		return true
	default:
		return false
	}
}

// KnownAgents lists the supported backends in preference order.
func KnownAgents() []AgentType {
	return []AgentType{AgentOpenCode, AgentClaudeCode}
}

// RunRequest is the input to a single adapter invocation. It is constructed
// fresh per iteration and never mutated after construction.
type RunRequest struct {
	// Prompt is the instruction text sent to the agent.
	Prompt string

	// Model is the backend-specific model identifier.
	Model string

	// AllowAll grants the agent file/system operations without prompting.
	AllowAll bool

	// WorkDir is the working directory for the agent process.
	WorkDir string

	// Env holds extra environment variables for the agent process.
	Env map[string]string

	// ExtraArgs are backend-specific flags appended verbatim.
	ExtraArgs []string
}

// RunResult is the output of a single headless adapter invocation. The
// caller decides what it means; the adapter only reports.
type RunResult struct {
	// Stdout and Stderr are the raw captured streams.
	Stdout string
	Stderr string

	// SessionID is the extracted backend session identifier, or empty if
	// extraction failed. Extraction is best-effort telemetry.
	SessionID string

	// Completed reports whether the combined output contained the
	// completion marker.
	Completed bool

	// ExitCode is the agent process exit code. -1 if the process could
	// not be started.
	ExitCode int
}

// ExportResult is the outcome of retrieving a past session's native export.
// On failure Payload is always nil, never partially filled.
type ExportResult struct {
	// Payload is the agent-native export data, never normalized.
	Payload json.RawMessage

	// Success reports whether the export was retrieved.
	Success bool

	// Error describes the failure when Success is false.
	Error string
}

// Metadata describes an adapter.
type Metadata struct {
	Name        AgentType
	DisplayName string
	CLICommand  string

	// Version is the detected backend version, populated as a side effect
	// of a successful availability check. Empty until then.
	Version string
}

// Adapter is the capability set implemented identically by every backend.
type Adapter interface {
	// CheckAvailability reports whether the backend can be run. It never
	// fails; any problem locating or executing the backend's version
	// check yields false. A successful check caches the version string.
	CheckAvailability(ctx context.Context) bool

	// Run executes the backend non-interactively to completion, capturing
	// both streams, and always attempts session-id extraction and
	// completion detection regardless of exit code. Operational failures
	// (missing binary, non-zero exit) surface through the result, not the
	// error; the error is reserved for malformed requests.
	Run(ctx context.Context, req RunRequest) (RunResult, error)

	// RunInteractive executes the backend with inherited standard I/O so
	// a human can drive it directly. It returns after the backend exits
	// and captures nothing, so no session metadata is produced.
	RunInteractive(ctx context.Context, req RunRequest) error

	// Export retrieves the backend-native export of a past session. All
	// failure modes map to an unsuccessful ExportResult.
	Export(ctx context.Context, sessionID string) ExportResult

	// Metadata returns adapter identity and the cached version, if any.
	Metadata() Metadata
}

// exportFailure builds a failed ExportResult with a nil payload.
func exportFailure(format string, args ...any) ExportResult {
	return ExportResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// exportPayload wraps raw export output. Valid JSON passes through
// untouched; anything else is carried as a JSON string so the payload stays
// opaque but well-formed.
func exportPayload(raw []byte) json.RawMessage {
	if json.Valid(raw) && len(raw) > 0 {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return json.RawMessage(quoted)
}
