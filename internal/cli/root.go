package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "lawnengine",
	Short:        "Lawn engine scheduling service",
	Long:         `Computes grass-potential curves and fertilizer pouch schedules for lawns and serves them over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, workerCmd, importCSVCmd, tokenCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
