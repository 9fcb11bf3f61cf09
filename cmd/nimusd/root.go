// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	nimlog "github.com/usdforge/nimusd/internal/log"
	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
)

// Global flag values.
var (
	verbose    bool
	quiet      bool
	noColor    bool
	apiKey     string
	endpoint   string
	model      string
	timeout    time.Duration
	maxRetries int
	configPath string
)

// rootCmd is the base command for nimusd.
var rootCmd = &cobra.Command{
	Use:   "nimusd",
	Short: "Generate and validate OpenUSD Python code with NVIDIA NIM",
	Long: `nimusd generates and reviews OpenUSD (pxr) Python code using the
NVIDIA NIM USD code model. Use it from the shell, in CI, or as an MCP
server that exposes generate_usd_code and validate_usd_code to an agent.

The API key is read from NIM_API_KEY or --api-key. Other settings come
from flags, NIM_* environment variables, the config file, and defaults,
in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		nimlog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
		if apiKey != "" {
			redact.Register(apiKey)
		}
		slog.Debug("nimusd starting", "version", Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&apiKey, "api-key", "", "NVIDIA API key (default $NIM_API_KEY)")
	pf.StringVar(&endpoint, "endpoint", "", "chat-completions endpoint URL (default $NIM_ENDPOINT or the hosted NIM API)")
	pf.StringVar(&model, "model", "", "model identifier (default $NIM_MODEL or the USD code model)")
	pf.DurationVar(&timeout, "timeout", 0, "per-attempt request timeout (default $NIM_TIMEOUT or 60s)")
	pf.IntVar(&maxRetries, "max-retries", 0, "retries after a transient failure (default $NIM_MAX_RETRIES or 2)")
	pf.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nimusd/config.yaml)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return nimerr.New(nimerr.InvalidArgument, "%v", err)
	})

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
