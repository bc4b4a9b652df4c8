package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Check the component tree for consistency",
	Long: `Builds the route tree from the root component and reports unreachable
components and a default route chain that does not resolve.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if len(args) > 0 {
			path = args[0]
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := validator.Validate(cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Component tree is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
