package main

import (
	"github.com/aretw0/folio/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the bot as an HTTP server: the JSON turn endpoint, the websocket chat,
server-sent events for paced messages and the operator API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			cfg.Server.Metrics, _ = cmd.Flags().GetBool("metrics")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Serve(sigCtx, app, cfg.Server.Addr); err != nil {
			return err
		}
		if sig := sigCtx.Signal(); sig != nil {
			app.Logger.Info("Shutting down", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
