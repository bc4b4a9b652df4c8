package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the route table visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the route table. With --session the
components of that session's stored snapshot are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			snap, err := app.Backend.Store.Load(context.Background(), sessionID)
			if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
				return err
			}
			overlay = graph.OverlayFromSnapshot(snap)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Engine.Tree(), app.Engine.Mode(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the stored snapshot of this session")
}
