package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "signal-service",
		Short:   "WebRTC signaling and room coordination server",
		Version: version,
		// main prints errors once, styled
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config/config.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newRoomsCmd(&configPath),
	)
	return root
}
