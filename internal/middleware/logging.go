// Package middleware provides the HTTP middleware chain of the maru API:
// request IDs, structured request logging, Prometheus request metrics and
// OpenTelemetry spans.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type memberIDKey struct{}

type requestInfoKey struct{}

// requestInfo lets handlers, which run on derived requests, report back to
// Logging.
type requestInfo struct {
	memberID  string
	errorCode string
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// SetMemberID stores the authenticated member in ctx. The authentication
// middleware calls it after verifying the bearer token.
func SetMemberID(ctx context.Context, memberID string) context.Context {
	if info := infoFrom(ctx); info != nil {
		info.memberID = memberID
	}
	return context.WithValue(ctx, memberIDKey{}, memberID)
}

// GetMemberID returns the authenticated member, or "" for anonymous requests.
func GetMemberID(ctx context.Context) string {
	id, _ := ctx.Value(memberIDKey{}).(string)
	return id
}

// SetErrorCode records the API error code of a failed response for the
// request log. Outside Logging it is a no-op.
func SetErrorCode(ctx context.Context, code string) context.Context {
	if info := infoFrom(ctx); info != nil {
		info.errorCode = code
	}
	return ctx
}

// GetErrorCode returns the code recorded by SetErrorCode.
func GetErrorCode(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.errorCode
	}
	return ""
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader keeps only the first status, as net/http does.
func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// NewLogger returns a JSON logger at Info in production and a text logger at
// Debug everywhere else.
func NewLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Logging writes one "request completed" entry per request. 5xx responses
// log at Error, 4xx at Warn and everything else at Info.
//
// A panicking handler produces no entry.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info))
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.Int64("size", rw.size),
			}
			if id := GetRequestID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if info.memberID != "" {
				attrs = append(attrs, slog.String("member_id", info.memberID))
			}
			if rw.status >= 400 && info.errorCode != "" {
				attrs = append(attrs, slog.String("error_code", info.errorCode))
			}

			level := slog.LevelInfo
			switch {
			case rw.status >= 500:
				level = slog.LevelError
			case rw.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}
