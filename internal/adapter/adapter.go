// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package adapter is the single entry point shared by the CLI and the MCP
// server. It validates tool arguments, builds the prompt, calls the provider
// and interprets the reply, returning either a Result or a *nimerr.Error.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/usdforge/nimusd/internal/interpret"
	"github.com/usdforge/nimusd/internal/llm"
	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/prompt"
)

// Operation names accepted by Invoke.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpValidate Operation = "validate"
)

// Argument keys.
const (
	ArgPrompt  = "prompt"
	ArgCode    = "code"
	ArgContext = "context"
)

// Outcome labels reported to the Recorder besides error kinds.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Recorder observes completed invocations. outcome is OutcomeOK,
// OutcomeDegraded or the nimerr.Kind of the failure.
type Recorder interface {
	RecordInvocation(op, outcome string, d time.Duration)
}

// Result is the outcome of a successful invocation. Exactly one of
// Generation and Validation is set, matching Operation.
type Result struct {
	Operation  Operation                   `json:"operation"`
	Generation *interpret.GenerationResult `json:"generation,omitempty"`
	Validation *interpret.ValidationResult `json:"validation,omitempty"`
	Model      string                      `json:"model,omitempty"`
	Attempts   int                         `json:"attempts,omitempty"`
	RequestID  string                      `json:"request_id,omitempty"`
	Usage      llm.Usage                   `json:"-"`
}

// Adapter turns named operations into provider calls. It holds no
// per-invocation state and is safe for concurrent use.
type Adapter struct {
	provider llm.Provider
	logger   *slog.Logger
	recorder Recorder
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder attaches an invocation recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

// New creates an Adapter backed by provider.
func New(provider llm.Provider, opts ...Option) *Adapter {
	a := &Adapter{provider: provider, logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ParseOperation validates an operation name.
func ParseOperation(name string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(name))); op {
	case OpGenerate, OpValidate:
		return op, nil
	}
	return "", nimerr.New(nimerr.UnknownOperation, "unknown operation %q (expected %q or %q)", name, OpGenerate, OpValidate)
}

// Invoke runs the named operation with loosely typed arguments, as received
// from a tool host. generate requires "prompt", validate requires "code";
// both accept an optional "context". Every failure is a *nimerr.Error.
func (a *Adapter) Invoke(ctx context.Context, operation string, args map[string]any) (*Result, error) {
	op, err := ParseOperation(operation)
	if err != nil {
		a.observe(operation, time.Now(), nil, err)
		return nil, err
	}

	text, extra, err := parseArgs(op, args)
	if err != nil {
		a.observe(string(op), time.Now(), nil, err)
		return nil, err
	}
	return a.run(ctx, op, text, extra)
}

// Generate produces USD code from a description.
func (a *Adapter) Generate(ctx context.Context, promptText, contextText string) (*interpret.GenerationResult, error) {
	res, err := a.run(ctx, OpGenerate, promptText, contextText)
	if err != nil {
		return nil, err
	}
	return res.Generation, nil
}

// Validate asks the model to review code.
func (a *Adapter) Validate(ctx context.Context, codeText, contextText string) (*interpret.ValidationResult, error) {
	res, err := a.run(ctx, OpValidate, codeText, contextText)
	if err != nil {
		return nil, err
	}
	return res.Validation, nil
}

func (a *Adapter) run(ctx context.Context, op Operation, text, extra string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = nimerr.New(nimerr.Internal, "%s: unexpected failure: %v", op, r)
		}
		if err != nil {
			err = nimerr.From(err)
		}
		a.observe(string(op), start, res, err)
	}()

	var req llm.ChatRequest
	switch op {
	case OpGenerate:
		req, err = prompt.Generate(text, extra)
	case OpValidate:
		req, err = prompt.Validate(text, extra)
	default:
		return nil, nimerr.New(nimerr.UnknownOperation, "unknown operation %q", op)
	}
	if err != nil {
		return nil, err
	}
	if a.provider == nil {
		return nil, nimerr.New(nimerr.Internal, "adapter has no provider")
	}

	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Operation: op,
		Model:     resp.Model,
		Attempts:  resp.Attempts,
		RequestID: resp.RequestID,
		Usage:     resp.Usage,
	}
	switch op {
	case OpGenerate:
		g := interpret.Generate(resp.Content)
		res.Generation = &g
	case OpValidate:
		v := interpret.Validate(resp.Content)
		res.Validation = &v
	}
	return res, nil
}

func (a *Adapter) observe(op string, start time.Time, res *Result, err error) {
	d := time.Since(start)
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = string(nimerr.KindOf(err))
		a.logger.Debug("invocation failed", "operation", op, "kind", outcome, "duration", d, "error", err)
	case res != nil && res.Validation != nil && !res.Validation.Parsed:
		outcome = OutcomeDegraded
		a.logger.Warn("model reply had no recognisable structure; returning degraded result",
			"operation", op, "request_id", res.RequestID)
	default:
		attrs := []any{"operation", op, "duration", d}
		if res != nil {
			attrs = append(attrs, "request_id", res.RequestID, "attempts", res.Attempts,
				"prompt_tokens", res.Usage.PromptTokens, "completion_tokens", res.Usage.CompletionTokens)
		}
		a.logger.Debug("invocation completed", attrs...)
	}
	if a.recorder != nil {
		a.recorder.RecordInvocation(op, outcome, d)
	}
}

// parseArgs checks args against the operation's shape and returns the
// required text and the optional context.
func parseArgs(op Operation, args map[string]any) (string, string, error) {
	required := ArgPrompt
	if op == OpValidate {
		required = ArgCode
	}

	for k := range args {
		if k != required && k != ArgContext {
			return "", "", nimerr.New(nimerr.InvalidArgument, "%s: unknown argument %q", op, k)
		}
	}

	raw, ok := args[required]
	if !ok || raw == nil {
		return "", "", nimerr.New(nimerr.InvalidArgument, "%s: missing required argument %q", op, required)
	}
	text, ok := raw.(string)
	if !ok {
		return "", "", nimerr.New(nimerr.InvalidArgument, "%s: argument %q must be a string, got %s", op, required, typeName(raw))
	}

	var extra string
	if c, present := args[ArgContext]; present && c != nil {
		s, ok := c.(string)
		if !ok {
			return "", "", nimerr.New(nimerr.InvalidArgument, "%s: argument %q must be a string, got %s", op, ArgContext, typeName(c))
		}
		extra = s
	}
	return text, extra, nil
}

func typeName(v any) string {
	switch v.(type) {
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
