package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
)

// Logging кладёт request-scoped логгер (с request_id, если RequestID
// отработал раньше) в контекст запроса и пишет access-запись по завершении.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(requestIDHeader); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), reqLogger))

			rec := newResponseRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelInfo, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.code),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", rec.bytes),
			)
		})
	}
}
