package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-stretch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.DefaultPath()
		if err == nil {
			logger.Debug("default config path", "path", path)
		}

		return cfg.Encode(cmd.OutOrStdout())
	},
}
