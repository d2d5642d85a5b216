package log

import (
	"context"
	"log/slog"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// Realm tags every record emitted by the codec.
const Realm = "modeljson"

var Base = slog.With(slog.String("realm", Realm))

// Logger returns the context logger if one is attached, Base otherwise.
func Logger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger := slogcontext.FromCtx(ctx); logger != nil && logger != slog.Default() {
			return logger.With(slog.String("realm", Realm))
		}
	}
	return Base
}

// Operation is a helper function to log operations with timing and error handling.
func Operation(ctx context.Context, operation string, fields ...slog.Attr) func(error) {
	start := time.Now()
	attrs := make([]any, 0, len(fields)+1)
	attrs = append(attrs, slog.String("operation", operation))
	for _, field := range fields {
		attrs = append(attrs, field)
	}
	logger := Logger(ctx).With(attrs...)
	logger.Log(ctx, slog.LevelDebug, "operation starting")
	return func(err error) {
		if err != nil {
			logger.Log(ctx, slog.LevelError, "operation failed", slog.Duration("duration", time.Since(start)), slog.String("error", err.Error()))
		} else {
			logger.Log(ctx, slog.LevelDebug, "operation completed", slog.Duration("duration", time.Since(start)))
		}
	}
}

// DocumentAttr creates a log attribute for a document.
func DocumentAttr(doc *model.Document) slog.Attr {
	if doc == nil {
		return slog.Group("document")
	}
	return slog.Group("document",
		slog.String("uri", doc.URI()),
		slog.Int("roots", doc.Len()),
	)
}

// DiagnosticsAttr summarizes the diagnostics recorded on a document.
func DiagnosticsAttr(doc *model.Document) slog.Attr {
	return slog.Group("diagnostics",
		slog.Int("errors", len(doc.Errors())),
		slog.Int("warnings", len(doc.Warnings())),
	)
}
