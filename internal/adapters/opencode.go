package adapters

import (
	"context"
	"errors"
	"strings"
)

// openCodeAdapter drives the OpenCode CLI in headless mode.
type openCodeAdapter struct {
	runner  CommandRunner
	command string
	version string
}

// NewOpenCodeAdapter creates an adapter for the OpenCode CLI. The headless
// toggle in opts is meaningless to OpenCode and silently ignored.
func NewOpenCodeAdapter(opts Options) *openCodeAdapter {
	return &openCodeAdapter{
		runner:  opts.runnerOrDefault(),
		command: "opencode",
	}
}

func (a *openCodeAdapter) CheckAvailability(ctx context.Context) bool {
	capture, err := a.runner.Run(ctx, Command{Name: a.command, Args: []string{"--version"}})
	if err != nil || capture.ExitCode != 0 {
		return false
	}
	a.version = strings.TrimSpace(capture.Stdout)
	return true
}

func (a *openCodeAdapter) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := validateRunRequest(req); err != nil {
		return RunResult{}, err
	}

	capture, err := a.runner.Run(ctx, a.buildRun(req))
	result := RunResult{
		Stdout:   capture.Stdout,
		Stderr:   capture.Stderr,
		ExitCode: capture.ExitCode,
	}
	if err != nil {
		// Missing binary and friends surface through the result.
		result.Stderr = joinStderr(result.Stderr, err.Error())
		result.ExitCode = -1
	}
	inspect(&result)
	return result, nil
}

func (a *openCodeAdapter) RunInteractive(ctx context.Context, req RunRequest) error {
	if err := validateRunRequest(req); err != nil {
		return err
	}

	args := []string{}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, "--prompt", req.Prompt)

	return a.runner.RunInteractive(ctx, Command{
		Name: a.command,
		Args: args,
		Dir:  req.WorkDir,
		Env:  runEnv(req),
	})
}

func (a *openCodeAdapter) Export(ctx context.Context, sessionID string) ExportResult {
	if strings.TrimSpace(sessionID) == "" {
		return exportFailure("session id is required")
	}

	capture, err := a.runner.Run(ctx, Command{Name: a.command, Args: []string{"export", sessionID}})
	if err != nil {
		return exportFailure("opencode export failed: %v", err)
	}
	if capture.ExitCode != 0 {
		return exportFailure("opencode export exited %d: %s", capture.ExitCode, strings.TrimSpace(capture.Stderr))
	}

	return ExportResult{Payload: exportPayload([]byte(capture.Stdout)), Success: true}
}

func (a *openCodeAdapter) Metadata() Metadata {
	return Metadata{
		Name:        AgentOpenCode,
		DisplayName: "OpenCode",
		CLICommand:  a.command,
		Version:     a.version,
	}
}

func (a *openCodeAdapter) buildRun(req RunRequest) Command {
	args := []string{"run"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Prompt)

	return Command{
		Name: a.command,
		Args: args,
		Dir:  req.WorkDir,
		Env:  runEnv(req),
	}
}

// runEnv builds the extra environment for an agent run, including the
// permission-posture signal.
func runEnv(req RunRequest) []string {
	env := make([]string, 0, len(req.Env)+1)
	if req.AllowAll {
		env = append(env, "OPENCODE_PERMISSION=allow")
	}
	for key, value := range req.Env {
		env = append(env, key+"="+value)
	}
	return env
}

func validateRunRequest(req RunRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return errors.New("run request requires a prompt")
	}
	return nil
}

func joinStderr(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}

var _ Adapter = (*openCodeAdapter)(nil)
