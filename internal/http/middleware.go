package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

// Middleware decorates an http.Handler with cross cutting behaviour.
type Middleware func(http.Handler) http.Handler

// RequestLogger assigns every request a sequence number, attaches a request
// scoped logger to the context and emits start/finish log lines.
func RequestLogger(logger *slog.Logger) Middleware {
	base := defaultLogger(logger)
	var sequence atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := base.With(
				"request", sequence.Add(1),
				"method", r.Method,
				"path", r.URL.Path,
			)

			started := time.Now()
			requestLogger.InfoContext(r.Context(), "request started")

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ContextWithLogger(r.Context(), requestLogger)))

			requestLogger.InfoContext(r.Context(), "request finished",
				"status", recorder.status,
				"duration_ms", time.Since(started).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// PrincipalExtractor reads identity headers set by the campus reverse proxy
// and stores the resulting principal in the request context. Requests without
// an X-User-Id header proceed anonymously; write operations reject those in
// the application layer.
func PrincipalExtractor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal := application.Principal{
				UserID:    userID,
				SectionID: strings.TrimSpace(r.Header.Get("X-Section-Id")),
			}
			switch strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Role"))) {
			case "admin":
				principal.IsAdmin = true
			case "representative":
				principal.Representative = true
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func applyMiddleware(handler http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}
