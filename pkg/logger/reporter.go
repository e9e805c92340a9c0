package logger

import (
	"context"
	"log/slog"
)

// Reporter is a sink for failures that are absorbed instead of returned,
// such as a single record that cannot be decrypted inside a batch.
type Reporter interface {
	Report(ctx context.Context, err error, attrs ...slog.Attr)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(ctx context.Context, err error, attrs ...slog.Attr)

func (f ReporterFunc) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	f(ctx, err, attrs...)
}

type logReporter struct {
	log *slog.Logger
}

// NewReporter returns a Reporter that writes every failure at ERROR level.
// A nil logger falls back to slog.Default().
func NewReporter(log *slog.Logger) Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &logReporter{log: log}
}

func (r *logReporter) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}
	attrs = append(attrs, Error(err))
	r.log.LogAttrs(ctx, slog.LevelError, "absorbed failure", attrs...)
}
