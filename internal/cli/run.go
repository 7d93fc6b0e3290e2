package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
	"github.com/KaviiSuri/ralphctl/internal/config"
	"github.com/KaviiSuri/ralphctl/internal/loop"
	"github.com/KaviiSuri/ralphctl/internal/prompt"
	"github.com/KaviiSuri/ralphctl/internal/session"
)

// loopFlags are the per-invocation configuration flags shared by the run and
// plan commands. Only flags the user actually set become overrides.
type loopFlags struct {
	agent         string
	maxIterations int
	smartModel    string
	fastModel     string
	allowAll      bool
	scope         string
}

func registerLoopFlags(cmd *cobra.Command, flags *loopFlags) {
	cmd.Flags().StringVar(&flags.agent, "agent", "", "agent backend (opencode, claude-code)")
	cmd.Flags().IntVar(&flags.maxIterations, "max-iterations", 0, "maximum loop iterations")
	cmd.Flags().StringVar(&flags.smartModel, "smart-model", "", "model for the smart role")
	cmd.Flags().StringVar(&flags.fastModel, "fast-model", "", "model for the fast role")
	cmd.Flags().BoolVar(&flags.allowAll, "allow-all", false, "let the agent perform file operations without prompting")
	cmd.Flags().StringVar(&flags.scope, "scope", "", "project scope directory, relative to the repo root")
}

// collectOverrides turns set flags into config overrides. Unset flags stay
// nil so they never clobber file-based configuration.
func collectOverrides(cmd *cobra.Command, flags *loopFlags) config.Overrides {
	var overrides config.Overrides
	if cmd.Flags().Changed("agent") {
		agent := adapters.AgentType(flags.agent)
		overrides.Agent = &agent
	}
	if cmd.Flags().Changed("max-iterations") {
		overrides.MaxIterations = &flags.maxIterations
	}
	if cmd.Flags().Changed("smart-model") {
		overrides.SmartModel = &flags.smartModel
	}
	if cmd.Flags().Changed("fast-model") {
		overrides.FastModel = &flags.fastModel
	}
	if cmd.Flags().Changed("allow-all") {
		permissions := config.PermissionsAsk
		if flags.allowAll {
			permissions = config.PermissionsAllowAll
		}
		overrides.Permissions = &permissions
	}
	return overrides
}

func init() {
	runFlags := &loopFlags{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the build loop until the agent signals completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, runFlags, session.ModeBuild)
		},
	}
	registerLoopFlags(runCmd, runFlags)
	rootCmd.AddCommand(runCmd)

	planFlags := &loopFlags{}
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the planning loop until the agent signals completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, planFlags, session.ModePlan)
		},
	}
	registerLoopFlags(planCmd, planFlags)
	rootCmd.AddCommand(planCmd)
}

func runLoop(cmd *cobra.Command, flags *loopFlags, mode session.Mode) error {
	cfg, err := config.NewResolver().Resolve(collectOverrides(cmd, flags), cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := adapters.New(ctx, cfg.Agent, adapters.Options{Headless: true})
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	resolver := &prompt.Resolver{
		SmartModel:  cfg.SmartModel,
		FastModel:   cfg.FastModel,
		ProjectPath: flags.scope,
		Scoped:      flags.scope != "",
	}
	template, err := prompt.Load(workDir, flags.scope, string(mode))
	if err != nil {
		return err
	}
	instruction, err := resolver.Expand(template)
	if err != nil {
		return err
	}

	controller := loop.New(adapter, session.NewStore(session.DefaultPath(workDir)), cfg, func(int) (string, error) {
		return instruction, nil
	})
	controller.Mode = mode
	controller.Scope = flags.scope
	controller.WorkDir = workDir

	result, err := controller.Run(ctx)
	printOutcome(result)

	switch {
	case errors.Is(err, context.Canceled):
		return &ExitError{Err: err, Code: 130, Printed: true}
	case err != nil:
		return err
	default:
		return nil
	}
}

func printOutcome(result loop.Result) {
	switch result.State {
	case loop.StateCompleted:
		fmt.Printf("%s after %d iteration(s)\n", colorize("Completed", colorGreen), result.Iterations)
	case loop.StateMaxIterationsReached:
		fmt.Printf("%s: %d iteration(s) without a completion marker\n", colorize("Budget exhausted", colorYellow), result.Iterations)
	case loop.StateInterrupted:
		fmt.Printf("%s after %d completed iteration(s)\n", colorize("Interrupted", colorYellow), result.Iterations)
	case loop.StateFailed:
		fmt.Printf("%s after %d completed iteration(s)\n", colorize("Failed", colorRed), result.Iterations)
	}
}
