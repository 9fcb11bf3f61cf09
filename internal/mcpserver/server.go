// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package mcpserver exposes the generate and validate operations as MCP
// tools over any go-sdk transport, stdio in production.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usdforge/nimusd/internal/adapter"
)

// ServerName is the implementation name announced during initialization.
const ServerName = "nimusd"

// New creates an MCP server with the USD tools registered against a.
func New(version string, a *adapter.Adapter) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Title:   "NVIDIA NIM USD code assistant",
		Version: version,
	}, nil)

	registerTools(server, a)
	return server
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, a *adapter.Adapter, transport mcp.Transport) error {
	return New(version, a).Run(ctx, transport)
}
