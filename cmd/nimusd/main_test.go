package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
)

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"nil", nil, ExitOK, ""},
		{"exit code with message", exitError(ExitRemote, "boom"), ExitRemote, "boom\n"},
		{"silent exit code", &exitCodeError{code: ExitInvalid}, ExitInvalid, ""},
		{"usage kind", nimerr.New(nimerr.InvalidArgument, "prompt must not be empty"), ExitUsage, "InvalidArgument: prompt must not be empty\n"},
		{"missing key", nimerr.New(nimerr.MissingCredential, "no key"), ExitUsage, "MissingCredential: no key\n"},
		{"remote kind", nimerr.New(nimerr.Timeout, "timed out"), ExitRemote, "Timeout: timed out\n"},
		{"plain error", errors.New(`unknown command "x"`), ExitUsage, "unknown command \"x\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, reportError(&buf, tt.err))
			assert.Equal(t, tt.wantOut, buf.String())
		})
	}
}

func TestReportError_Redacts(t *testing.T) {
	redact.ResetForTest()
	redact.Register("nvapi-secret-in-message")

	var buf bytes.Buffer
	code := reportError(&buf, nimerr.New(nimerr.Unauthorized, "key nvapi-secret-in-message rejected"))
	assert.Equal(t, ExitRemote, code)
	assert.Equal(t, "Unauthorized: key [REDACTED] rejected\n", buf.String())
}

func TestExitCodeFor(t *testing.T) {
	usage := []nimerr.Kind{nimerr.MissingCredential, nimerr.InvalidArgument, nimerr.UnknownOperation}
	remote := []nimerr.Kind{
		nimerr.Timeout, nimerr.Unauthorized, nimerr.Forbidden, nimerr.NotFound,
		nimerr.BadRequest, nimerr.MalformedResponse, nimerr.NetworkFailure,
		nimerr.Canceled, nimerr.Internal,
	}
	for _, k := range usage {
		assert.Equal(t, ExitUsage, exitCodeFor(nimerr.New(k, "x")), k)
	}
	for _, k := range remote {
		assert.Equal(t, ExitRemote, exitCodeFor(nimerr.New(k, "x")), k)
	}
	assert.Equal(t, ExitOK, exitCodeFor(nil))
}
