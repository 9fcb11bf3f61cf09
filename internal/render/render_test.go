package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdforge/nimusd/internal/interpret"
	"github.com/usdforge/nimusd/internal/nimerr"
)

func init() {
	color.NoColor = true
}

func TestText_Invalid(t *testing.T) {
	res := interpret.Validate("VALID: no\nERRORS:\n- missing import\n- bad path\nWARNINGS:\n- hard-coded path\nASSESSMENT: broken")

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, Report{Source: "scene.py", Result: &res}))
	out := buf.String()

	assert.Contains(t, out, "NIM VALIDATION RESULTS: scene.py")
	assert.Contains(t, out, "Status: ✗ INVALID")
	assert.Contains(t, out, "Errors (2):\n  1. missing import\n  2. bad path\n")
	assert.Contains(t, out, "Warnings (1):\n  1. hard-coded path\n")
	assert.NotContains(t, out, "Suggestions")
	assert.Contains(t, out, "Assessment:\n  broken\n")
}

func TestText_Valid(t *testing.T) {
	res := interpret.Validate("ERRORS: none\nASSESSMENT: looks fine")

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, Report{Result: &res}))
	assert.Contains(t, buf.String(), "Status: ✓ VALID")
	assert.NotContains(t, buf.String(), "Errors (")
	assert.NotContains(t, buf.String(), "expected structure")
}

func TestText_Degraded(t *testing.T) {
	res := interpret.Validate("no structure here")

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, Report{Result: &res}))
	assert.Contains(t, buf.String(), "Status: ? UNKNOWN")
	assert.Contains(t, buf.String(), "expected structure")
	assert.Contains(t, buf.String(), interpret.ParseFailureNotice)
}

func TestText_Error(t *testing.T) {
	var buf bytes.Buffer
	err := nimerr.New(nimerr.Unauthorized, "invalid API key")
	require.NoError(t, Text(&buf, Report{Source: "a.py", Err: err}))
	assert.Contains(t, buf.String(), "Status: ✗ ERROR")
	assert.Contains(t, buf.String(), "Unauthorized: invalid API key")
}

func TestFailed(t *testing.T) {
	valid := interpret.Validate("VALID: yes")
	invalid := interpret.Validate("VALID: no")
	unknown := interpret.Validate("hmm")

	assert.False(t, Report{Result: &valid}.Failed())
	assert.True(t, Report{Result: &invalid}.Failed())
	assert.True(t, Report{Result: &unknown}.Failed())
	assert.True(t, Report{Err: nimerr.New(nimerr.Timeout, "slow")}.Failed())
	assert.True(t, Report{}.Failed())
}

func TestJSON(t *testing.T) {
	valid := interpret.Validate("ERRORS: none\nASSESSMENT: ok")
	reports := []Report{
		{Source: "a.py", Result: &valid},
		{Source: "b.py", Err: nimerr.New(nimerr.Timeout, "timed out after 60s")},
	}

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, reports))

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed, 2)

	assert.Equal(t, "valid", parsed[0]["status"])
	result := parsed[0]["result"].(map[string]any)
	assert.Equal(t, true, result["valid"])
	assert.Equal(t, []any{}, result["errors"])
	assert.Nil(t, parsed[0]["error"])

	assert.Equal(t, "error", parsed[1]["status"])
	assert.Nil(t, parsed[1]["result"])
	assert.Equal(t, map[string]any{"kind": "Timeout", "message": "timed out after 60s"}, parsed[1]["error"])
}
