package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"fleet_tracker/internal/config"
)

func init() {
	serveCmd.Flags().StringP("port", "p", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().String("realtime", "", "realtime source: inprocess or postgres (overrides REALTIME_SOURCE)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fleet API server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		if source, _ := cmd.Flags().GetString("realtime"); source != "" {
			cfg.RealtimeSource = source
		}
		fx.New(ServerModule(cfg)).Run()
	},
}
