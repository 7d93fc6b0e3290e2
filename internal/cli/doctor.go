package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which agent backends are runnable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		unavailable := 0

		for _, agent := range adapters.KnownAgents() {
			adapter, err := adapters.New(cmd.Context(), agent, adapters.Options{})
			if err != nil {
				unavailable++
				var unavailErr *adapters.UnavailableError
				if errors.As(err, &unavailErr) {
					fmt.Printf("%s %-12s %s\n", colorize("✗", colorRed), agent, unavailErr.Remediation)
					fmt.Printf("  %s\n", unavailErr.InstallURL)
				} else {
					fmt.Printf("%s %-12s %v\n", colorize("✗", colorRed), agent, err)
				}
				continue
			}

			meta := adapter.Metadata()
			version := meta.Version
			if version == "" {
				version = "unknown version"
			}
			fmt.Printf("%s %-12s %s (%s)\n", colorize("✓", colorGreen), agent, version, meta.CLICommand)
		}

		if unavailable == len(adapters.KnownAgents()) {
			return &ExitError{Err: errors.New("no agent backends available"), Code: 1, Printed: true}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
