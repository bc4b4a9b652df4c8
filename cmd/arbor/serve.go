package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves navigation over HTTP: POST /navigate, GET /state, GET /routes,
GET /events (server-sent snapshot diffs) and GET /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") && app.Config.HTTP.Addr != "" {
			addr = app.Config.HTTP.Addr
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", app.Config.Root, ln.Addr())
		if err := cli.Serve(sigCtx, ln, app.Engine.Handler(), app.Logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "arbor server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
