package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/go-identity-service/internal/errors"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
)

// errPanic уходит в WriteError как неразмеченная ошибка и даёт 500/internal.
var errPanic = errors.New("panic")

// Recover переводит панику обработчика в 500 с унифицированным телом.
// Причина паники остаётся в логах и на клиент не попадает.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
					)
					apierrors.WriteError(w, r, errPanic)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
