package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// MaskValue replaces values logged under credential-like keys.
const MaskValue = "***REDACTED***"

// MaxAttrLen bounds the length of logged string attributes. Page bodies
// and long URLs are truncated to this many bytes with an ellipsis marker.
const MaxAttrLen = 2048

// sensitiveKeys are attribute keys whose values are always masked.
// The crawler itself never logs credentials, but configuration and proxied
// request headers can carry them.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
}

// SanitizeHandler wraps an slog.Handler, truncating oversized attribute
// values and masking credential-like keys before delegating.
type SanitizeHandler struct {
	handler slog.Handler
}

// NewSanitizeHandler creates a SanitizeHandler around handler. A nil
// handler falls back to slog.Default().Handler().
func NewSanitizeHandler(handler slog.Handler) *SanitizeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SanitizeHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SanitizeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SanitizeHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler whose underlying handler has the given
// (sanitized) attributes.
func (h *SanitizeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, sanitizeAttr(a))
	}
	return &SanitizeHandler{handler: h.handler.WithAttrs(out)}
}

// WithGroup returns a new handler with the given group name.
func (h *SanitizeHandler) WithGroup(name string) slog.Handler {
	return &SanitizeHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); len(s) > MaxAttrLen {
			return slog.String(a.Key, s[:MaxAttrLen]+"...(truncated)")
		}
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]any, 0, len(group))
		for _, ga := range group {
			out = append(out, sanitizeAttr(ga))
		}
		return slog.Group(a.Key, out...)
	}
	return a
}

// ParseLevel maps the CLI/config log level names onto slog levels.
// Unknown names fall back to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the crawler's logger: a text handler at the given level on w,
// wrapped in a SanitizeHandler.
func New(w io.Writer, level string) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(NewSanitizeHandler(text))
}
