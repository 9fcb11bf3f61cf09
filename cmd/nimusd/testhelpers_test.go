package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/usdforge/nimusd/internal/config"
	"github.com/usdforge/nimusd/internal/llm"
	"github.com/usdforge/nimusd/internal/metrics"
	"github.com/usdforge/nimusd/internal/redact"
)

const testKey = "nvapi-cli-test-key-0000" //nolint:gosec // fake test credential

// resetFlags restores every flag on every command to its default.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// newTestCmd isolates the environment and redirects rootCmd's I/O.
func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	resetFlags()
	color.NoColor = true
	redact.ResetForTest()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		config.EnvAPIKey, config.EnvEndpoint, config.EnvModel,
		config.EnvTimeout, config.EnvMaxRetries,
	} {
		t.Setenv(name, "")
	}

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetContext(context.Background())
	return rootCmd, stdout, stderr
}

// withMockProvider makes commands use p and returns the configurations the
// factory was called with.
func withMockProvider(t *testing.T, p llm.Provider) *[]*config.Config {
	t.Helper()
	orig := newProvider
	var seen []*config.Config
	newProvider = func(cfg *config.Config, _ *metrics.Metrics) (llm.Provider, error) {
		seen = append(seen, cfg)
		return p, nil
	}
	t.Cleanup(func() { newProvider = orig })
	return &seen
}
