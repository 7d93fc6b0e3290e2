package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// claudeCodeAdapter drives the Claude Code CLI.
type claudeCodeAdapter struct {
	runner   CommandRunner
	command  string
	headless bool
	version  string
}

// NewClaudeCodeAdapter creates an adapter for the Claude Code CLI. The
// headless toggle is recorded as session metadata via Headless; headless runs
// always use Claude's print flag regardless.
func NewClaudeCodeAdapter(opts Options) *claudeCodeAdapter {
	return &claudeCodeAdapter{
		runner:   opts.runnerOrDefault(),
		command:  "claude",
		headless: opts.Headless,
	}
}

func (a *claudeCodeAdapter) CheckAvailability(ctx context.Context) bool {
	capture, err := a.runner.Run(ctx, Command{Name: a.command, Args: []string{"--version"}})
	if err != nil || capture.ExitCode != 0 {
		return false
	}
	a.version = strings.TrimSpace(capture.Stdout)
	return true
}

func (a *claudeCodeAdapter) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := validateRunRequest(req); err != nil {
		return RunResult{}, err
	}

	args := []string{"-p", req.Prompt}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.AllowAll {
		args = append(args, "--dangerously-skip-permissions")
	}
	args = append(args, req.ExtraArgs...)

	capture, err := a.runner.Run(ctx, Command{
		Name: a.command,
		Args: args,
		Dir:  req.WorkDir,
		Env:  claudeEnv(req),
	})
	result := RunResult{
		Stdout:   capture.Stdout,
		Stderr:   capture.Stderr,
		ExitCode: capture.ExitCode,
	}
	if err != nil {
		result.Stderr = joinStderr(result.Stderr, err.Error())
		result.ExitCode = -1
	}
	inspect(&result)
	return result, nil
}

func (a *claudeCodeAdapter) RunInteractive(ctx context.Context, req RunRequest) error {
	if err := validateRunRequest(req); err != nil {
		return err
	}

	args := []string{}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.AllowAll {
		args = append(args, "--dangerously-skip-permissions")
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Prompt)

	return a.runner.RunInteractive(ctx, Command{
		Name: a.command,
		Args: args,
		Dir:  req.WorkDir,
		Env:  claudeEnv(req),
	})
}

// Export reads the session transcript from Claude's project data directory.
// Claude Code has no export subcommand; transcripts live under
// ~/.claude/projects/<munged workdir>/<session id>.jsonl.
func (a *claudeCodeAdapter) Export(ctx context.Context, sessionID string) ExportResult {
	if strings.TrimSpace(sessionID) == "" {
		return exportFailure("session id is required")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return exportFailure("cannot locate home directory: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return exportFailure("cannot determine working directory: %v", err)
	}

	path := filepath.Join(home, ".claude", "projects", mungeProjectPath(wd), sessionID+".jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		return exportFailure("session transcript not found: %v", err)
	}

	return ExportResult{Payload: exportPayload(data), Success: true}
}

func (a *claudeCodeAdapter) Metadata() Metadata {
	return Metadata{
		Name:        AgentClaudeCode,
		DisplayName: "Claude Code",
		CLICommand:  a.command,
		Version:     a.version,
	}
}

// Headless reports whether the adapter was constructed in headless/print
// mode. Recorded per session for later inspection.
func (a *claudeCodeAdapter) Headless() bool {
	return a.headless
}

func claudeEnv(req RunRequest) []string {
	env := make([]string, 0, len(req.Env)+1)
	if req.AllowAll {
		env = append(env, "CLAUDE_PERMISSION_MODE=bypassPermissions")
	}
	for key, value := range req.Env {
		env = append(env, key+"="+value)
	}
	return env
}

// mungeProjectPath applies Claude's directory-name encoding to an absolute
// path: separators and dots become dashes.
func mungeProjectPath(path string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ".", "-", " ", "-")
	return replacer.Replace(path)
}

var _ Adapter = (*claudeCodeAdapter)(nil)
