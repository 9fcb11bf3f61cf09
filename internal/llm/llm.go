// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package llm provides the chat-completion types shared by nimusd's prompt
// builder and interpreter, the Provider interface, and the NIM implementation
// that talks to NVIDIA's OpenAI-compatible endpoint.
package llm

import (
	"context"

	"github.com/usdforge/nimusd/internal/nimerr"
)

// Provider abstracts an LLM API behind a single synchronous completion method.
type Provider interface {
	// Complete sends a chat request and returns the first completion.
	// Implementations must respect context cancellation and deadlines and
	// return *nimerr.Error values on failure.
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	Role    Role
	Content string
}

// ChatRequest describes a single completion request.
type ChatRequest struct {
	// Messages is the ordered conversation. It must contain at least one
	// system and one user message.
	Messages []ChatMessage

	// Model overrides the provider's configured model. If empty, the
	// provider uses its default.
	Model string

	// Temperature controls randomness. If nil, the provider uses its default.
	Temperature *float64

	// MaxTokens limits the response length. If zero, the provider uses its
	// own default.
	MaxTokens int
}

// Validate checks the structural invariants of the request.
func (r ChatRequest) Validate() error {
	var hasSystem, hasUser bool
	for _, m := range r.Messages {
		switch m.Role {
		case RoleSystem:
			hasSystem = true
		case RoleUser:
			hasUser = true
		case RoleAssistant:
		default:
			return nimerr.New(nimerr.InvalidArgument, "chat request: unknown role %q", m.Role)
		}
	}
	if !hasSystem || !hasUser {
		return nimerr.New(nimerr.InvalidArgument, "chat request: needs at least one system and one user message")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return nimerr.New(nimerr.InvalidArgument, "chat request: temperature must be between 0 and 2, got %g", *r.Temperature)
	}
	if r.MaxTokens < 0 {
		return nimerr.New(nimerr.InvalidArgument, "chat request: max_tokens must be non-negative, got %d", r.MaxTokens)
	}
	return nil
}

// Float returns a pointer to f, for ChatRequest.Temperature.
func Float(f float64) *float64 { return &f }

// ChatResponse holds the result of a completion call.
type ChatResponse struct {
	// Content is the text of the first completion.
	Content string

	// Model is the model that served the request as reported by the API.
	Model string

	// Usage reports token consumption when the API provides it.
	Usage Usage

	// StatusCode is the HTTP status of the successful attempt.
	StatusCode int

	// Attempts is how many HTTP attempts the call took.
	Attempts int

	// RequestID correlates every attempt of one call in logs.
	RequestID string
}

// Usage tracks token counts for a single request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
