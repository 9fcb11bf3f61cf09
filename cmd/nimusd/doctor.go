package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usdforge/nimusd/internal/adapter"
	"github.com/usdforge/nimusd/internal/render"
)

// doctorSample is a small, correct USD script used as a smoke test.
const doctorSample = `from pxr import Usd, UsdGeom

stage = Usd.Stage.CreateNew("test.usd")
xform = UsdGeom.Xform.Define(stage, "/World")
stage.GetRootLayer().Save()
`

// doctorCmd checks configuration and connectivity end to end.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity with a sample validation",
	Long: `Resolve the configuration, then validate a small built-in USD script
against the configured endpoint and print the result.

The command succeeds whenever the model answers, whatever its verdict;
it fails only when the configuration or the request fails.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := newProvider(cfg, nil)
	if err != nil {
		return err
	}
	defer closer(p)()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "endpoint: %s\nmodel:    %s\n", cfg.Endpoint, cfg.Model)

	res, err := newAdapter(p, nil).Invoke(cmd.Context(), string(adapter.OpValidate), map[string]any{
		adapter.ArgCode: doctorSample,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "request:  %s (attempts: %d)\n\n", res.RequestID, res.Attempts)
	return render.Text(out, render.Report{Source: "built-in sample", Result: res.Validation})
}
