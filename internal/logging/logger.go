// Package logging builds the structured loggers used across the fleet
// control plane core. Every component takes a *slog.Logger via constructor
// injection rather than reaching for a package-level global.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// LevelTrace is more verbose than Debug; selected with a "trace" level
// (e.g. --log-level trace on the CLI).
const LevelTrace = slog.Level(-8)

// GenerateCorrelationID creates a random 12-character hex correlation ID,
// one per collect/watch/analyze operation.
func GenerateCorrelationID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "fallback-id"
	}
	return hex.EncodeToString(b)
}

// WithCorrelationID attaches a correlation ID to a context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation ID from a context, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// Format selects the slog.Handler wire format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format Format // text (default) or json
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a structured logger per Options, writing to stdout.
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if opts.Format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	return slog.New(handler)
}

// NewLogger is a convenience wrapper for the common case of only a level
// string, matching the shape callers reach for from CLI flags.
func NewLogger(level string) *slog.Logger {
	return New(Options{Level: level, Format: FormatText})
}

// FromContext returns a logger annotated with the context's correlation ID,
// if any.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}

// ForDevice annotates a logger with a device reference, the common
// dimension every collection/watch/analyze log line carries.
func ForDevice(base *slog.Logger, deviceRef string) *slog.Logger {
	return base.With("device", deviceRef)
}

var (
	hostnamePattern = regexp.MustCompile(`\b([a-zA-Z0-9_-]+@)?[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}\b`)
	ipPattern       = regexp.MustCompile(`\b(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})\b`)
	sshKeyPattern   = regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`)
)

// Redact sanitizes dotted hostnames (optionally user@-prefixed), IPv4
// addresses (all but the first octet), and SSH private key material from
// a string before it is attached to a log line.
func Redact(value string) string {
	result := sshKeyPattern.ReplaceAllString(value, "[REDACTED-SSH-KEY]")
	result = ipPattern.ReplaceAllString(result, "$1.***")
	result = hostnamePattern.ReplaceAllString(result, "[REDACTED-HOST]")
	return result
}
