package adapters

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Env entries are appended to the inherited process environment.
	Env []string
}

// Capture holds the outcome of a captured process run.
type Capture struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external processes on behalf of adapters. The
// indirection keeps adapters testable without the real agent binaries.
type CommandRunner interface {
	// Run executes the command to completion, capturing both streams.
	// A non-zero exit is reported through Capture, not the error; the
	// error covers failures to start the process at all.
	Run(ctx context.Context, cmd Command) (Capture, error)

	// RunInteractive executes the command with inherited standard I/O
	// and waits for it to exit.
	RunInteractive(ctx context.Context, cmd Command) error
}

// execRunner is the production CommandRunner backed by os/exec.
type execRunner struct{}

// NewExecRunner returns the default os/exec-backed CommandRunner.
func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, cmd Command) (Capture, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	capture := Capture{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Process ran and exited non-zero; the capture carries it.
			return capture, nil
		}
		return capture, err
	}
	return capture, nil
}

func (execRunner) RunInteractive(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
