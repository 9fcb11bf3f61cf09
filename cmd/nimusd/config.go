package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/usdforge/nimusd/internal/config"
)

// configCmd is the parent command for config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect nimusd configuration",
	Long: `Inspect nimusd configuration.

Settings are resolved per field from flags, then NIM_* environment
variables, then the YAML config file, then built-in defaults. The config
file never holds the API key.`,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long:  "Print the effective configuration as YAML. The API key is masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, err := loadConfigFile()
		if err != nil {
			return err
		}
		cfg, err := config.Inspect(overrides(cmd), file, os.Getenv)
		if err != nil {
			return err
		}
		return config.WriteView(cmd.OutOrStdout(), cfg.View())
	},
}

// configPathCmd prints where the config file is read from.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path := configPath
		if path == "" {
			path = config.GlobalConfigPath()
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
