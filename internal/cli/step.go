package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
	"github.com/KaviiSuri/ralphctl/internal/config"
	"github.com/KaviiSuri/ralphctl/internal/prompt"
	"github.com/KaviiSuri/ralphctl/internal/session"
)

func init() {
	stepFlags := &loopFlags{}
	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "Run a single interactive agent session",
		Long: `Step hands the terminal to the agent for one session so you can steer it
directly. Interactive sessions capture nothing and produce no session record;
use run or plan for recorded, autonomous iterations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, stepFlags)
		},
	}
	registerLoopFlags(stepCmd, stepFlags)
	rootCmd.AddCommand(stepCmd)
}

func runStep(cmd *cobra.Command, flags *loopFlags) error {
	if !hasTTY() {
		return fmt.Errorf("step requires an interactive terminal")
	}

	cfg, err := config.NewResolver().Resolve(collectOverrides(cmd, flags), cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := adapters.New(ctx, cfg.Agent, adapters.Options{Headless: false})
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
	template, err := prompt.Load(workDir, flags.scope, string(session.ModeBuild))
	if err != nil {
		return err
	}
	instruction, err := resolver.Expand(template)
	if err != nil {
		return err
	}

	fmt.Printf("Handing terminal to %s; exit the agent to return.\n", adapter.Metadata().DisplayName)

	return adapter.RunInteractive(ctx, adapters.RunRequest{
		Prompt:   instruction,
		Model:    cfg.SmartModel,
		AllowAll: cfg.Permissions == config.PermissionsAllowAll,
		WorkDir:  workDir,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
