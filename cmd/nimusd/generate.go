package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usdforge/nimusd/internal/adapter"
	"github.com/usdforge/nimusd/internal/nimerr"
)

// Generate-specific flag values.
var (
	generateContext string
	generateOutput  string
	generateRaw     bool
)

// generateCmd asks the model to write USD code.
var generateCmd = &cobra.Command{
	Use:   "generate [prompt...]",
	Short: "Generate USD Python code from a description",
	Long: `Generate OpenUSD Python code from a natural-language description.

The prompt is taken from the arguments, or from stdin when no arguments
are given or the only argument is "-". Markdown code fences are stripped
from the reply unless --raw is set.

Examples:
  nimusd generate "create a stage with a red cube at the origin"
  echo "author a variant set on /World/Car" | nimusd generate -o car.py`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateContext, "context", "", "extra context about the project or requirements")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the code to this file instead of stdout")
	generateCmd.Flags().BoolVar(&generateRaw, "raw", false, "print the model reply unmodified")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	a, cleanup, err := buildAdapter(cmd, nil)
	defer cleanup()
	if err != nil {
		return err
	}

	res, err := a.Invoke(cmd.Context(), string(adapter.OpGenerate), map[string]any{
		adapter.ArgPrompt:  text,
		adapter.ArgContext: generateContext,
	})
	if err != nil {
		return err
	}

	out := res.Generation.Code
	if generateRaw {
		out = res.Generation.Raw
	}
	out = strings.TrimRight(out, "\r\n")

	if generateOutput == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	if err := cmdFS.WriteFile(generateOutput, []byte(out+"\n"), 0o644); err != nil { //nolint:gosec // generated source is not secret
		return nimerr.Wrap(nimerr.InvalidArgument, err, "writing %s", generateOutput)
	}
	slog.Info("wrote generated code", "path", generateOutput, "model", res.Model, "request_id", res.RequestID)
	return nil
}
