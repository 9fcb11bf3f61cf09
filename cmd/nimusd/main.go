package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/usdforge/nimusd/internal/nimerr"
	"github.com/usdforge/nimusd/internal/redact"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(reportError(os.Stderr, err))
}

// reportError prints err to w in redacted form and returns the exit code.
func reportError(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	var ece *exitCodeError
	if errors.As(err, &ece) {
		if ece.msg != "" {
			_, _ = fmt.Fprintln(w, redact.String(ece.msg))
		}
		return ece.code
	}
	var ne *nimerr.Error
	if errors.As(err, &ne) {
		_, _ = fmt.Fprintln(w, redact.String(nimerr.Describe(ne)))
		return exitCodeFor(ne)
	}
	// cobra argument and command errors
	_, _ = fmt.Fprintln(w, redact.String(err.Error()))
	return ExitUsage
}
