// Package cli implements the ralphctl command-line interface using Cobra.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaviiSuri/ralphctl/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	noColor   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ralphctl",
	Short: "Autonomous iteration loops for coding agents",
	Long: `Ralphctl drives a coding-agent CLI (OpenCode, Claude Code) in an
autonomous iteration loop: each iteration sends an instruction, waits for the
agent to finish, records the session, and repeats until the agent emits the
completion marker or the iteration budget runs out.

Every iteration is appended to .ralph/sessions.json for later inspection.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel, logFormat)
	},
}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	rootCmd.Version = formatVersion(version, commit, date)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an explicit config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func formatVersion(version, commit, date string) string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
