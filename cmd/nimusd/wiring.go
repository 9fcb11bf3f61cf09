package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usdforge/nimusd/internal/adapter"
	"github.com/usdforge/nimusd/internal/config"
	"github.com/usdforge/nimusd/internal/llm"
	"github.com/usdforge/nimusd/internal/metrics"
	"github.com/usdforge/nimusd/internal/nimerr"
)

// maxInputBytes bounds prompt and source input.
const maxInputBytes = 1 << 20

// newProvider builds the provider for a resolved configuration.
// Override in tests with a function returning an llm.MockProvider.
var newProvider = func(cfg *config.Config, m *metrics.Metrics) (llm.Provider, error) {
	return llm.NewNIMProvider(cfg,
		llm.WithRecorder(m),
		llm.WithLogger(slog.Default()),
	)
}

// overrides collects the explicitly set global flags.
func overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{
		APIKey:   apiKey,
		Endpoint: endpoint,
		Model:    model,
		Timeout:  timeout,
	}
	if f := cmd.Flag("max-retries"); f != nil && f.Changed {
		n := maxRetries
		o.MaxRetries = &n
	}
	return o
}

func loadConfigFile() (*config.File, error) {
	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return nil, nimerr.Wrap(nimerr.InvalidArgument, err, "reading config file %s", path)
	}
	return f, nil
}

func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := loadConfigFile()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(overrides(cmd), file, os.Getenv)
	if err != nil {
		return nil, err
	}
	slog.Debug("configuration resolved",
		"endpoint", cfg.Endpoint,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
	)
	return cfg, nil
}

// buildAdapter resolves the configuration and wires provider and adapter.
// The returned cleanup releases pooled connections.
func buildAdapter(cmd *cobra.Command, m *metrics.Metrics) (*adapter.Adapter, func(), error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, func() {}, err
	}
	p, err := newProvider(cfg, m)
	if err != nil {
		return nil, func() {}, err
	}
	return newAdapter(p, m), closer(p), nil
}

func newAdapter(p llm.Provider, m *metrics.Metrics) *adapter.Adapter {
	return adapter.New(p,
		adapter.WithLogger(slog.Default()),
		adapter.WithRecorder(m),
	)
}

func closer(p llm.Provider) func() {
	return func() {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// readInput returns the joined args, or stdin when there are none or the
// only arg is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		return readLimited(cmd.InOrStdin(), "stdin")
	}
	return strings.Join(args, " "), nil
}

// readSource reads a file path, or stdin for "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		return readLimited(cmd.InOrStdin(), "stdin")
	}
	f, err := cmdFS.Open(path)
	if err != nil {
		return "", nimerr.Wrap(nimerr.InvalidArgument, err, "cannot open %q", path)
	}
	defer f.Close() //nolint:errcheck // read-only
	return readLimited(f, path)
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", nimerr.Wrap(nimerr.InvalidArgument, err, "reading %s", name)
	}
	if len(data) > maxInputBytes {
		return "", nimerr.New(nimerr.InvalidArgument, "%s exceeds %d bytes", name, maxInputBytes)
	}
	return string(data), nil
}

func sourceName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
