package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaviiSuri/ralphctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect ralphctl configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewResolver().Resolve(config.Overrides{}, cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("agent:          %s\n", cfg.Agent)
		fmt.Printf("smart_model:    %s\n", cfg.SmartModel)
		fmt.Printf("fast_model:     %s\n", cfg.FastModel)
		fmt.Printf("max_iterations: %d\n", cfg.MaxIterations)
		fmt.Printf("permissions:    %s\n", cfg.Permissions)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
