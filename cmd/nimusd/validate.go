// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usdforge/nimusd/internal/adapter"
	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
	"github.com/usdforge/nimusd/internal/render"
)

// Validate-specific flag values.
var (
	validateContext string
	validateFormat  string
	validateJobs    int
)

// validateCmd asks the model to review USD code.
var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Review USD Python code for errors",
	Long: `Review OpenUSD Python code with the NIM model and report errors,
warnings, suggestions and an overall assessment.

Files are reviewed concurrently (see --jobs). With no files, or "-", the
code is read from stdin.

Exit status is 0 when every input is valid, 3 when any input is invalid
or the model's reply could not be understood, 2 when a request failed and
1 for usage errors. This makes the command usable as a CI gate.

Examples:
  nimusd validate scene.py
  nimusd validate --format json tools/*.py
  cat build_stage.py | nimusd validate --context "runs inside Houdini"`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateContext, "context", "", "extra context about what the code does")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format: text or json")
	validateCmd.Flags().IntVar(&validateJobs, "jobs", 4, "maximum concurrent requests")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateFormat != "text" && validateFormat != "json" {
		return nimerr.New(nimerr.InvalidArgument, "unsupported format %q (expected text or json)", validateFormat)
	}
	if validateJobs < 1 {
		return nimerr.New(nimerr.InvalidArgument, "--jobs must be at least 1, got %d", validateJobs)
	}

	sources := args
	if len(sources) == 0 {
		sources = []string{"-"}
	}
	inputs := make([]string, len(sources))
	for i, src := range sources {
		code, err := readSource(cmd, src)
		if err != nil {
			return err
		}
		inputs[i] = code
	}

	a, cleanup, err := buildAdapter(cmd, nil)
	defer cleanup()
	if err != nil {
		return err
	}

	reports := make([]render.Report, len(sources))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(validateJobs)
	for i := range sources {
		g.Go(func() error {
			res, err := a.Invoke(ctx, string(adapter.OpValidate), map[string]any{
				adapter.ArgCode:    inputs[i],
				adapter.ArgContext: validateContext,
			})
			reports[i] = render.Report{Source: sourceName(sources[i]), Err: err}
			if err == nil {
				reports[i].Result = res.Validation
			}
			// Per-input failures are reported, not propagated, so one
			// failing file does not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	if err := writeReports(cmd, reports); err != nil {
		return err
	}
	return validateExit(reports)
}

func writeReports(cmd *cobra.Command, reports []render.Report) error {
	if validateFormat == "json" {
		return render.JSON(cmd.OutOrStdout(), reports)
	}
	for _, r := range reports {
		if r.Err != nil {
			msg := nimerr.Describe(r.Err)
			if len(reports) > 1 {
				msg = r.Source + ": " + msg
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), redact.String(msg))
			continue
		}
		if err := render.Text(cmd.OutOrStdout(), r); err != nil {
			return err
		}
	}
	return nil
}

// validateExit picks the exit status: request failures first, then any
// input that is not known to be valid.
func validateExit(reports []render.Report) error {
	for _, r := range reports {
		if r.Err != nil {
			return &exitCodeError{code: exitCodeFor(r.Err)}
		}
	}
	for _, r := range reports {
		if r.Failed() {
			return &exitCodeError{code: ExitInvalid}
		}
	}
	return nil
}
