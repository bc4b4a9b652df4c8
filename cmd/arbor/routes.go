package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/tui"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the reachable routes",
	Long:  `Lists every route reachable under the configured routing mode, depth first in match order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		routes := app.Engine.Routes()
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(routes)
		}
		rendered, err := tui.NewRenderer(out)(tui.RoutesMarkdown(routes))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().Bool("json", false, "Print routes as JSON")
}
