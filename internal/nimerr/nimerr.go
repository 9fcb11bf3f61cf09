// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package nimerr defines the error kinds surfaced by nimusd's CLI and MCP
// tools. Every failure that crosses a component boundary is an *Error so
// callers can branch on Kind instead of matching message text.
package nimerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	MissingCredential Kind = "MissingCredential"
	InvalidArgument   Kind = "InvalidArgument"
	Timeout           Kind = "Timeout"
	Unauthorized      Kind = "Unauthorized"
	Forbidden         Kind = "Forbidden"
	NotFound          Kind = "NotFound"
	BadRequest        Kind = "BadRequest"
	MalformedResponse Kind = "MalformedResponse"
	UnknownOperation  Kind = "UnknownOperation"
	NetworkFailure    Kind = "NetworkFailure"
	Canceled          Kind = "Canceled"
	Internal          Kind = "Internal"
)

// Error is a classified failure. Status and Body are set for HTTP failures
// and carry the provider's raw response for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind wrapping cause. If cause is
// already an *Error it is returned unchanged so the original kind survives
// re-wrapping at outer layers.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	var e *Error
	if errors.As(cause, &e) {
		return e
	}
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf classifies any error. Context errors map to Canceled and Timeout;
// everything unrecognised is Internal. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Canceled
	}
	return Internal
}

// From converts any error into an *Error, preserving an existing
// classification.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindOf(err), Message: err.Error(), Err: err}
}

// Describe renders err as the one-line "<Kind>: <message>" form printed by
// the CLI and returned by the MCP tools.
func Describe(err error) string {
	e := From(err)
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Error())
}

// IsUsage reports whether the kind is detected before any network call
// (configuration and argument problems).
func (k Kind) IsUsage() bool {
	switch k {
	case MissingCredential, InvalidArgument, UnknownOperation:
		return true
	}
	return false
}
