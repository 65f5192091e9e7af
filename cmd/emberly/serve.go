package main

import (
	"github.com/aretw0/emberly/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API proxy and metrics server",
	Long: `Relays /api/v1/voice/sessions, /api/v1/voice/sessions/{id}/respond and
/api/v1/respond to the configured API so browser clients avoid CORS, and
exposes /healthz and Prometheus /metrics. Set EMBERLY_USE_API_PROXY=false to
turn the proxy routes off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, debug := commonFlags(cmd)
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signalContext()
		defer stop()

		return cli.RunServe(ctx, cli.ServeOptions{
			ConfigPath: configPath,
			Addr:       addr,
			Debug:      debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (default from proxy.addr)")
}
