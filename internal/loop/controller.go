// Package loop implements the iteration loop controller: it repeatedly
// invokes an agent adapter, records each iteration, and stops on the first
// completion marker, exhausted budget, failure, or interrupt.
package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
	"github.com/KaviiSuri/ralphctl/internal/config"
	"github.com/KaviiSuri/ralphctl/internal/logging"
	"github.com/KaviiSuri/ralphctl/internal/session"
)

// State is the controller's lifecycle state. All states other than Idle and
// Running are terminal.
type State string

const (
	StateIdle                 State = "idle"
	StateRunning              State = "running"
	StateCompleted            State = "completed"
	StateMaxIterationsReached State = "max_iterations_reached"
	StateInterrupted          State = "interrupted"
	StateFailed               State = "failed"
)

// PromptFunc resolves the fully expanded instruction text for an iteration.
type PromptFunc func(iteration int) (string, error)

// Result summarizes a finished loop.
type Result struct {
	// State is the terminal state the loop reached.
	State State

	// Iterations is the number of fully completed (persisted) iterations.
	Iterations int

	// LastExitCode is the exit code of the last adapter invocation.
	LastExitCode int
}

// Controller runs the iteration loop. Strictly sequential: iteration N's
// record is durably written before iteration N+1 starts, because the log's
// append order is the only ordering guarantee consumers get.
type Controller struct {
	Adapter adapters.Adapter
	Store   *session.Store
	Config  *config.Config
	Prompt  PromptFunc

	// Mode and Scope are recorded on every session record.
	Mode  session.Mode
	Scope string

	// WorkDir is the working directory for agent invocations.
	WorkDir string

	Logger zerolog.Logger

	// Now is the clock, overridable for tests.
	Now func() time.Time
}

// New creates a Controller with default dependencies.
func New(adapter adapters.Adapter, store *session.Store, cfg *config.Config, prompt PromptFunc) *Controller {
	return &Controller{
		Adapter: adapter,
		Store:   store,
		Config:  cfg,
		Prompt:  prompt,
		Mode:    session.ModeBuild,
		Logger:  logging.Component("loop"),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes iterations until a terminal state. The returned error is
// non-nil for Failed and Interrupted outcomes and nil otherwise.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	if c.Adapter == nil || c.Store == nil || c.Config == nil || c.Prompt == nil {
		return Result{State: StateIdle}, errors.New("loop: controller requires adapter, store, config, and prompt source")
	}

	maxIterations := c.Config.MaxIterations
	if maxIterations <= 0 {
		return Result{State: StateIdle}, fmt.Errorf("loop: max iterations must be positive, got %d", maxIterations)
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}

	headless := adapters.HeadlessFlag(c.Adapter)
	agent := c.Adapter.Metadata().Name
	appended := 0

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctx.Err() != nil {
			c.Logger.Warn().Int("iteration", iteration).Msg("interrupted before iteration start")
			return Result{State: StateInterrupted, Iterations: appended}, ctx.Err()
		}

		instruction, err := c.Prompt(iteration)
		if err != nil {
			return Result{State: StateFailed, Iterations: appended}, fmt.Errorf("loop: prompt resolution failed: %w", err)
		}

		startedAt := c.Now()
		c.Logger.Info().
			Int("iteration", iteration).
			Int("max_iterations", maxIterations).
			Str("agent", string(agent)).
			Msg("iteration start")

		result, err := c.Adapter.Run(ctx, adapters.RunRequest{
			Prompt:   instruction,
			Model:    c.Config.SmartModel,
			AllowAll: c.Config.Permissions == config.PermissionsAllowAll,
			WorkDir:  c.WorkDir,
		})
		if err != nil {
			return Result{State: StateFailed, Iterations: appended}, fmt.Errorf("loop: adapter run: %w", err)
		}

		if ctx.Err() != nil {
			// Mid-iteration cancellation: the in-flight result is
			// discarded, prior records stay persisted.
			c.Logger.Warn().Int("iteration", iteration).Msg("interrupted mid-iteration, result discarded")
			return Result{State: StateInterrupted, Iterations: appended, LastExitCode: result.ExitCode}, ctx.Err()
		}

		if result.ExitCode != 0 {
			c.Logger.Error().
				Int("iteration", iteration).
				Int("exit_code", result.ExitCode).
				Msg("agent invocation failed")
			return Result{State: StateFailed, Iterations: appended, LastExitCode: result.ExitCode},
				fmt.Errorf("loop: iteration %d exited %d: %s", iteration, result.ExitCode, errorTail(result.Stderr))
		}

		sessionID := result.SessionID
		if sessionID == "" {
			sessionID = session.PlaceholderSessionID()
			c.Logger.Debug().Int("iteration", iteration).Msg("no session id extracted, using placeholder")
		}

		record := session.Record{
			Iteration: iteration,
			SessionID: sessionID,
			StartedAt: startedAt,
			Mode:      c.Mode,
			Prompt:    instruction,
			Agent:     agent,
			Headless:  headless,
			Scope:     c.Scope,
		}
		if err := c.Store.Append(record); err != nil {
			return Result{State: StateFailed, Iterations: appended}, fmt.Errorf("loop: persist iteration %d: %w", iteration, err)
		}
		appended++

		if result.Completed {
			c.Logger.Info().Int("iteration", iteration).Msg("completion marker detected")
			return Result{State: StateCompleted, Iterations: appended}, nil
		}

		c.Logger.Info().
			Int("iteration", iteration).
			Str("session_id", sessionID).
			Msg("iteration done, no completion marker")
	}

	return Result{State: StateMaxIterationsReached, Iterations: appended}, nil
}

// errorTail keeps operator-facing failure text to the last few lines.
func errorTail(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return "(no stderr)"
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return strings.Join(lines, "\n")
}
