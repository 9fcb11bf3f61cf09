// Package log configures structured logging for nimusd using log/slog.
// Records are written to stderr so stdout stays free for command output and
// the MCP stdio protocol.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/usdforge/nimusd/internal/redact"
)

// Level maps the verbosity flags to a slog level. quiet wins over verbose.
func Level(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Setup installs a redacting text logger on stderr as the slog default and
// returns it.
func Setup(verbose, quiet bool) *slog.Logger {
	l := New(os.Stderr, Level(verbose, quiet))
	slog.SetDefault(l)
	return l
}

// New builds a text logger writing to w. Every message and string attribute
// passes through redact.String.
func New(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Value.Kind() {
			case slog.KindString:
				return slog.String(a.Key, redact.String(a.Value.String()))
			case slog.KindAny:
				if err, ok := a.Value.Any().(error); ok {
					return slog.String(a.Key, redact.String(err.Error()))
				}
			}
			return a
		},
	})
	return slog.New(redactingHandler{h})
}

// redactingHandler scrubs the record message, which ReplaceAttr never sees.
type redactingHandler struct {
	slog.Handler
}

func (h redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = redact.String(r.Message)
	return h.Handler.Handle(ctx, r)
}

func (h redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return redactingHandler{h.Handler.WithAttrs(attrs)}
}

func (h redactingHandler) WithGroup(name string) slog.Handler {
	return redactingHandler{h.Handler.WithGroup(name)}
}
