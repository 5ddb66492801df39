package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to the default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Transport logs every outgoing request made through base.
// 4xx responses are logged at warn, 5xx and transport failures at error.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(r)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	fields := NewFields().
		WithHTTP(r.Method, r.URL.Path, status, time.Since(start).Milliseconds()).
		WithRequestID(r.Header.Get("X-Request-ID")).
		WithError(err)

	level := slog.LevelDebug
	switch {
	case err != nil || status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	t.Logger.Logger.Log(r.Context(), level, "api request", t.Logger.tagged(fields.ToSlice())...)
	return resp, err
}
