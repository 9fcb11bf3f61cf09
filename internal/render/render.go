// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package render formats validation results for the terminal and for JSON
// consumers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/usdforge/nimusd/internal/interpret"
	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
)

// Shared color printers.
var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorBold   = color.New(color.Bold)
	colorFaint  = color.New(color.Faint)
)

const rule = "======================================================================"

// Report is the validation outcome for one input. Exactly one of Result and
// Err is set.
type Report struct {
	Source string
	Result *interpret.ValidationResult
	Err    error
}

// Failed reports whether the input should fail a CI gate: a remote error,
// an invalid verdict, or a result whose validity is unknown.
func (r Report) Failed() bool {
	return r.Err != nil || r.Result == nil || !r.Result.Valid
}

// StatusLabel returns VALID, INVALID, UNKNOWN or ERROR.
func StatusLabel(r Report) string {
	switch {
	case r.Err != nil:
		return "ERROR"
	case r.Result == nil || r.Result.Verdict == interpret.VerdictUnknown:
		return "UNKNOWN"
	case r.Result.Valid:
		return "VALID"
	default:
		return "INVALID"
	}
}

// ColorStatus colors a status label.
func ColorStatus(label string) string {
	switch label {
	case "VALID":
		return colorGreen.Sprint("✓ " + label)
	case "INVALID", "ERROR":
		return colorRed.Sprint("✗ " + label)
	case "UNKNOWN":
		return colorYellow.Sprint("? " + label)
	default:
		return label
	}
}

// Text writes a human-readable report.
func Text(w io.Writer, r Report) error {
	var b strings.Builder

	b.WriteString(rule + "\n")
	title := "NIM VALIDATION RESULTS"
	if r.Source != "" {
		title += ": " + r.Source
	}
	b.WriteString(colorBold.Sprint(title) + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Status: %s\n", ColorStatus(StatusLabel(r)))

	if r.Err != nil {
		fmt.Fprintf(&b, "\n  %s\n", redact.String(nimerr.Describe(r.Err)))
		b.WriteString(rule + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	res := r.Result
	if res == nil {
		res = &interpret.ValidationResult{}
	}
	writeList(&b, "Errors", res.Errors, colorRed)
	writeList(&b, "Warnings", res.Warnings, colorYellow)
	writeList(&b, "Suggestions", res.Suggestions, nil)

	if res.Assessment != "" {
		b.WriteString("\n" + colorBold.Sprint("Assessment:") + "\n")
		for _, line := range strings.Split(res.Assessment, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	if !res.Parsed {
		b.WriteString("\n" + colorFaint.Sprint("(the model's reply did not follow the expected structure)") + "\n")
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string, c *color.Color) {
	if len(items) == 0 {
		return
	}
	heading := fmt.Sprintf("%s (%d):", title, len(items))
	if c != nil {
		heading = c.Sprint(heading)
	}
	b.WriteString("\n" + heading + "\n")
	for i, it := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, it)
	}
}

// errorJSON is the machine-readable form of a failure.
type errorJSON struct {
	Kind    nimerr.Kind `json:"kind"`
	Message string      `json:"message"`
}

type reportJSON struct {
	Source string                      `json:"source,omitempty"`
	Status string                      `json:"status"`
	Result *interpret.ValidationResult `json:"result,omitempty"`
	Error  *errorJSON                  `json:"error,omitempty"`
}

// JSON writes reports as an indented JSON array.
func JSON(w io.Writer, reports []Report) error {
	out := make([]reportJSON, 0, len(reports))
	for _, r := range reports {
		rj := reportJSON{Source: r.Source, Status: strings.ToLower(StatusLabel(r)), Result: r.Result}
		if r.Err != nil {
			e := nimerr.From(r.Err)
			rj.Error = &errorJSON{Kind: e.Kind, Message: redact.String(e.Error())}
			rj.Result = nil
		}
		out = append(out, rj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
