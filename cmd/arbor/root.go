package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "arbor routes paths through a tree of components",
	Long: `arbor resolves navigation paths against the route table of a component
tree described in a YAML application file and drives the lifecycle hooks of
every component it loads and removes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "app.yaml", "Application config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every navigation and hook to stderr")
}

// openApp builds the engine from the persistent flags.
func openApp(cmd *cobra.Command, metrics bool) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewApp(cli.Options{ConfigPath: path, Debug: debug, Metrics: metrics}, cmd.ErrOrStderr())
}
