// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usdforge/nimusd/internal/llm"
	"github.com/usdforge/nimusd/internal/mcpserver"
	"github.com/usdforge/nimusd/internal/metrics"
	"github.com/usdforge/nimusd/internal/nimerr"
)

var mcpMetricsAddr string

// mcpTransport returns the transport used by mcp serve.
// Override in tests with an in-memory transport.
var mcpTransport = func() mcp.Transport { return &mcp.StdioTransport{} }

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running nimusd as an MCP server, exposing USD code generation and validation to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing two tools:
  - generate_usd_code: generate USD Python code from a description
  - validate_usd_code: review USD Python code and return a JSON verdict

Logs go to stderr. With --metrics-addr, Prometheus metrics are served
on http://<addr>/metrics for the lifetime of the server.

A missing or invalid configuration does not stop the server; every tool
call then fails with the configuration error so the agent can report it.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	mcpCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	var m *metrics.Metrics
	if mcpMetricsAddr != "" {
		m = metrics.New()
	}

	var provider llm.Provider
	cfg, err := resolveConfig(cmd)
	if err == nil {
		provider, err = newProvider(cfg, m)
	}
	if err != nil {
		slog.Warn("configuration incomplete; tool calls will fail until it is fixed", "error", nimerr.Describe(err))
		provider = failingProvider{err: nimerr.From(err)}
	}
	defer closer(provider)()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, mcpMetricsAddr, slog.Default())
		})
	}
	g.Go(func() error {
		defer cancel()
		slog.Info("mcp server starting", "version", Version)
		return mcpserver.Run(gctx, Version, newAdapter(provider, m), mcpTransport())
	})
	if err := g.Wait(); err != nil && !(errors.Is(err, context.Canceled) && cmd.Context().Err() != nil) {
		return err
	}
	return nil
}

// failingProvider answers every call with a fixed configuration error.
type failingProvider struct {
	err *nimerr.Error
}

func (f failingProvider) Complete(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, f.err
}
