package loop

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
	"github.com/KaviiSuri/ralphctl/internal/config"
	"github.com/KaviiSuri/ralphctl/internal/session"
)

// scriptedAdapter returns canned results per iteration.
type scriptedAdapter struct {
	results []adapters.RunResult
	calls   int
	cancel  context.CancelFunc // when set, cancels the context during the last scripted run
}

func (a *scriptedAdapter) CheckAvailability(ctx context.Context) bool { return true }

func (a *scriptedAdapter) Run(ctx context.Context, req adapters.RunRequest) (adapters.RunResult, error) {
	idx := a.calls
	a.calls++
	if a.cancel != nil && idx == len(a.results)-1 {
		a.cancel()
	}
	if idx < len(a.results) {
		return a.results[idx], nil
	}
	return adapters.RunResult{ExitCode: 0}, nil
}

func (a *scriptedAdapter) RunInteractive(ctx context.Context, req adapters.RunRequest) error {
	return nil
}

func (a *scriptedAdapter) Export(ctx context.Context, sessionID string) adapters.ExportResult {
	return adapters.ExportResult{Success: false, Error: "not scripted"}
}

func (a *scriptedAdapter) Metadata() adapters.Metadata {
	return adapters.Metadata{Name: adapters.AgentOpenCode, DisplayName: "OpenCode", CLICommand: "opencode"}
}

func testConfig(maxIterations int) *config.Config {
	cfg := config.Default()
	cfg.MaxIterations = maxIterations
	return cfg
}

func newTestController(t *testing.T, adapter adapters.Adapter, cfg *config.Config) (*Controller, *session.Store) {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "sessions.json"))
	controller := New(adapter, store, cfg, func(iteration int) (string, error) {
		return fmt.Sprintf("iteration %d instruction", iteration), nil
	})
	return controller, store
}

func results(n int, mutate func(i int, r *adapters.RunResult)) []adapters.RunResult {
	out := make([]adapters.RunResult, n)
	for i := range out {
		out[i] = adapters.RunResult{Stdout: fmt.Sprintf("Session: ses-%d", i+1), ExitCode: 0}
		if mutate != nil {
			mutate(i, &out[i])
		}
	}
	return out
}

func TestRunExhaustsBudgetWithoutMarker(t *testing.T) {
	for _, n := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			adapter := &scriptedAdapter{results: results(n, nil)}
			controller, store := newTestController(t, adapter, testConfig(n))

			result, err := controller.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StateMaxIterationsReached, result.State)
			assert.Equal(t, n, result.Iterations)

			log, err := store.Load()
			require.NoError(t, err)
			require.Len(t, log.Sessions, n)
			for i, record := range log.Sessions {
				assert.Equal(t, i+1, record.Iteration)
				assert.Equal(t, fmt.Sprintf("ses-%d", i+1), record.SessionID)
				assert.Equal(t, fmt.Sprintf("iteration %d instruction", i+1), record.Prompt)
			}
		})
	}
}

func TestRunStopsOnCompletionMarker(t *testing.T) {
	// Marker on iteration 2 of a 5-iteration budget.
	adapter := &scriptedAdapter{results: results(5, func(i int, r *adapters.RunResult) {
		if i == 1 {
			r.Stdout += "\n" + adapters.CompletionMarker
		}
	})}
	controller, store := newTestController(t, adapter, testConfig(5))

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 2, adapter.calls, "no further iterations after completion")

	log, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, log.Sessions, 2)
}

func TestRunFailureDropsFailedIteration(t *testing.T) {
	// Iteration 3 exits non-zero: exactly 2 records, state Failed.
	adapter := &scriptedAdapter{results: results(5, func(i int, r *adapters.RunResult) {
		if i == 2 {
			r.ExitCode = 1
			r.Stderr = "agent crashed"
		}
	})}
	controller, store := newTestController(t, adapter, testConfig(5))

	result, err := controller.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent crashed")
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, result.LastExitCode)

	log, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Len(t, log.Sessions, 2)
}

func TestRunSingleIterationBudget(t *testing.T) {
	adapter := &scriptedAdapter{results: results(1, nil)}
	controller, store := newTestController(t, adapter, testConfig(1))

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateMaxIterationsReached, result.State)
	assert.Equal(t, 1, result.Iterations)

	log, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, log.Sessions, 1)
}

func TestRunRejectsNonPositiveBudget(t *testing.T) {
	for _, n := range []int{0, -1} {
		adapter := &scriptedAdapter{}
		controller, _ := newTestController(t, adapter, testConfig(n))

		_, err := controller.Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, 0, adapter.calls, "rejected before the loop starts")
	}
}

func TestRunInterruptDiscardsInFlightIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// The adapter cancels the context during iteration 3's run; that
	// iteration's result must be discarded.
	adapter := &scriptedAdapter{results: results(3, nil), cancel: cancel}
	controller, store := newTestController(t, adapter, testConfig(10))

	result, err := controller.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateInterrupted, result.State)
	assert.Equal(t, 2, result.Iterations)

	log, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Len(t, log.Sessions, 2, "prior records stay persisted, in-flight result dropped")
}

func TestRunSynthesizesPlaceholderSessionID(t *testing.T) {
	adapter := &scriptedAdapter{results: []adapters.RunResult{{Stdout: "no id here", ExitCode: 0}}}
	controller, store := newTestController(t, adapter, testConfig(1))

	_, err := controller.Run(context.Background())
	require.NoError(t, err)

	log, err := store.Load()
	require.NoError(t, err)
	require.Len(t, log.Sessions, 1)
	assert.Contains(t, log.Sessions[0].SessionID, "pending-")
}

func TestRunRecordsModeScopeAndAgent(t *testing.T) {
	adapter := &scriptedAdapter{results: results(1, func(i int, r *adapters.RunResult) {
		r.Stdout += "\n" + adapters.CompletionMarker
	})}
	controller, store := newTestController(t, adapter, testConfig(3))
	controller.Mode = session.ModePlan
	controller.Scope = "specs/auth"

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)

	log, err := store.Load()
	require.NoError(t, err)
	require.Len(t, log.Sessions, 1)
	assert.Equal(t, session.ModePlan, log.Sessions[0].Mode)
	assert.Equal(t, "specs/auth", log.Sessions[0].Scope)
	assert.Equal(t, adapters.AgentOpenCode, log.Sessions[0].Agent)
}

func TestRunPromptErrorFailsBeforeInvocation(t *testing.T) {
	adapter := &scriptedAdapter{}
	store := session.NewStore(filepath.Join(t.TempDir(), "sessions.json"))
	controller := New(adapter, store, testConfig(3), func(int) (string, error) {
		return "", fmt.Errorf("template missing")
	})

	result, err := controller.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 0, adapter.calls)
}
