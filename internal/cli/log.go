package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// parseLevel parses a --log-level value.
func parseLevel(s string) (log.Level, error) {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, errors.New(errors.ErrCodeInvalidInput, "invalid log level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Analyzed my-app (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks reports checker and cache events at debug level.
type logHooks struct {
	observability.NoopReportHooks
	observability.NoopCacheHooks
	logger *log.Logger
}

// registerLogHooks routes report and cache events to logger.
func registerLogHooks(logger *log.Logger) {
	h := &logHooks{logger: logger}
	observability.SetReportHooks(h)
	observability.SetCacheHooks(h)
}

func (h *logHooks) OnCheckStart(_ context.Context, checker string) {
	h.logger.Debug("check started", "checker", checker)
}

func (h *logHooks) OnCheckComplete(_ context.Context, checker string, messages int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("check failed", "checker", checker, "duration", d.Round(time.Millisecond), "error", err)
		return
	}
	h.logger.Debug("check complete", "checker", checker, "messages", messages, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

// reportHooksFanout forwards report events to several hooks.
type reportHooksFanout []observability.ReportHooks

func (f reportHooksFanout) OnReportStart(ctx context.Context, root string) {
	for _, h := range f {
		h.OnReportStart(ctx, root)
	}
}

func (f reportHooksFanout) OnReportComplete(ctx context.Context, pkg string, messages int, d time.Duration, err error) {
	for _, h := range f {
		h.OnReportComplete(ctx, pkg, messages, d, err)
	}
}

func (f reportHooksFanout) OnCheckStart(ctx context.Context, checker string) {
	for _, h := range f {
		h.OnCheckStart(ctx, checker)
	}
}

func (f reportHooksFanout) OnCheckComplete(ctx context.Context, checker string, messages int, d time.Duration, err error) {
	for _, h := range f {
		h.OnCheckComplete(ctx, checker, messages, d, err)
	}
}
