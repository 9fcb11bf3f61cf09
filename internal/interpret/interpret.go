// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package interpret turns the model's free-form replies into generation and
// validation results.
package interpret

import (
	"strings"
)

// Verdict is the validity judgement carried by a ValidationResult.
type Verdict string

const (
	VerdictValid   Verdict = "valid"
	VerdictInvalid Verdict = "invalid"
	VerdictUnknown Verdict = "unknown"
)

// Format records how a validation reply was understood.
type Format string

const (
	// FormatMarkers: the reply used the section-marker grammar.
	FormatMarkers Format = "markers"
	// FormatJSON: the reply was a JSON object with the result keys.
	FormatJSON Format = "json"
	// FormatUnparsed: neither grammar matched; the result is degraded.
	FormatUnparsed Format = "unparsed"
)

// ParseFailureNotice prefixes the assessment of a degraded result.
const ParseFailureNotice = "could not parse structured response"

// GenerationResult is the outcome of the generate operation.
type GenerationResult struct {
	Code string `json:"code"`
	Raw  string `json:"raw"`
}

// ValidationResult is the outcome of the validate operation.
//
// A result with Parsed=false is the degraded fallback: the model answered
// but not in a recognisable structure, so Verdict is unknown and Valid is
// false. Callers must not read that as "the model found the code invalid".
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Verdict     Verdict  `json:"verdict"`
	Parsed      bool     `json:"parsed"`
	Format      Format   `json:"format"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
	Assessment  string   `json:"assessment"`
}

// Generate strips a surrounding code fence from reply. It never fails; a
// reply without fences is returned as-is.
func Generate(reply string) GenerationResult {
	return GenerationResult{Code: StripFences(reply), Raw: reply}
}

// StripFences removes one surrounding ``` fence (with an optional language
// tag) and the blank lines just inside it. Indentation of the fenced code is
// kept. Text that is not a single fenced block is returned unchanged.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if len(t) < 6 || !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") {
		return s
	}

	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return s
	}
	if !isLangTag(strings.TrimSpace(t[3:nl])) {
		return s
	}

	inner := t[nl+1 : len(t)-3]
	for _, line := range strings.Split(inner, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			// More than one block; not a single surrounding fence.
			return s
		}
	}
	return trimBlankLines(inner)
}

// trimBlankLines drops leading and trailing whitespace-only lines and the
// trailing whitespace of the last line, leaving leading indentation alone.
func trimBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	lines[len(lines)-1] = strings.TrimRight(lines[len(lines)-1], " \t")
	return strings.Join(lines, "\n")
}

func isLangTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '.':
		default:
			return false
		}
	}
	return true
}

// Validate interprets a validation reply. The section-marker grammar is
// tried first, then a JSON object; if neither matches the degraded result
// is returned. The errors-imply-invalid invariant always holds on return.
func Validate(reply string) ValidationResult {
	body := strings.TrimSpace(StripFences(reply))

	if strings.HasPrefix(body, "{") {
		if r, ok := parseJSON(body); ok {
			return enforce(r)
		}
	}
	if r, ok := parseMarkers(body); ok {
		return enforce(r)
	}
	if obj := embeddedObject(reply); obj != "" {
		if r, ok := parseJSON(obj); ok {
			return enforce(r)
		}
	}
	return Degraded(reply)
}

// Degraded builds the fallback result for a reply that could not be parsed.
func Degraded(reply string) ValidationResult {
	assessment := ParseFailureNotice + "; validity is unknown"
	if raw := strings.TrimSpace(reply); raw != "" {
		assessment += ". Raw reply:\n" + raw
	}
	return ValidationResult{
		Valid:       false,
		Verdict:     VerdictUnknown,
		Parsed:      false,
		Format:      FormatUnparsed,
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
		Assessment:  assessment,
	}
}

// enforce applies the post-parse corrections: nil lists become empty and a
// non-empty error list forces an invalid verdict regardless of what the
// model claimed.
func enforce(r ValidationResult) ValidationResult {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if len(r.Errors) > 0 {
		r.Verdict = VerdictInvalid
	}
	if r.Verdict == "" {
		r.Verdict = VerdictUnknown
	}
	r.Valid = r.Verdict == VerdictValid
	return r
}
