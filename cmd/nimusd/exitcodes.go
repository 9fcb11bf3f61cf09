package main

import (
	"fmt"

	"github.com/usdforge/nimusd/internal/nimerr"
)

// Exit codes for the nimusd CLI.
const (
	ExitOK      = 0 // Success.
	ExitUsage   = 1 // Bad flags or arguments, missing API key, unknown operation.
	ExitRemote  = 2 // The NIM call failed (network, timeout, HTTP error, bad reply).
	ExitInvalid = 3 // validate: the code is invalid or its validity is unknown.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
// An empty msg means the details were already printed.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.msg
}

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

func exitError(code int, format string, args ...any) *exitCodeError {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}

// exitCodeFor maps a failure to ExitUsage or ExitRemote by its kind.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if nimerr.KindOf(err).IsUsage() {
		return ExitUsage
	}
	return ExitRemote
}
