package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
)

var loadCmd = &cobra.Command{
	Use:   "load [path...]",
	Short: "Navigate a session through one or more paths",
	Long: `Navigates the session through each path in order, printing the committed
snapshot after every navigation. Without paths it reads one path per line from
stdin. Sessions are persisted in the configured store and resumed on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		flag, _ := cmd.Flags().GetString("session")
		sessionID := app.SessionID(flag)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		defer func() {
			if err := app.Engine.Close(context.WithoutCancel(sigCtx), sessionID); err != nil {
				app.Logger.Warn("session close failed", "session_id", sessionID, "error", err)
			}
		}()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			return cli.RunPaths(sigCtx, app.Engine, sessionID, args, out)
		}

		if tui.IsTerminal(out) {
			tui.PrintBanner(out, arbor.Version)
			fmt.Fprintf(out, ">>> Session '%s'. Type a path, or 'exit' to quit.\n", sessionID)
		}
		err = cli.RunInteractive(sigCtx, app.Engine, sessionID, cmd.InOrStdin(), out)
		if sig := sigCtx.Signal(); sig != nil {
			app.Logger.Info("interrupted", "signal", sig.String())
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringP("session", "s", "", "Session ID (default: router.id from the config)")
}
