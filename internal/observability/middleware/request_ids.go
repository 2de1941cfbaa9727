package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type ctxKey string

const (
	CtxKeyRequestID ctxKey = "request_id"
	CtxKeyTraceID   ctxKey = "trace_id"

	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

func generateID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// WithRequestAndTrace accepts caller-provided ids or mints new ones, stores
// them on the context and echoes them back as response headers.
func WithRequestAndTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = generateID()
		}
		traceID := r.Header.Get(HeaderTraceID)
		if traceID == "" {
			traceID = generateID()
		}

		w.Header().Set(HeaderRequestID, reqID)
		w.Header().Set(HeaderTraceID, traceID)

		ctx := ContextWithIDs(r.Context(), reqID, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ContextWithIDs(ctx context.Context, reqID, traceID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyRequestID, reqID)
	return context.WithValue(ctx, CtxKeyTraceID, traceID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyTraceID).(string); ok {
		return v
	}
	return ""
}

// Logger returns the default logger annotated with the ids carried by ctx.
func Logger(ctx context.Context) *slog.Logger {
	return slog.Default().With(
		"request_id", RequestIDFromContext(ctx),
		"trace_id", TraceIDFromContext(ctx),
	)
}
