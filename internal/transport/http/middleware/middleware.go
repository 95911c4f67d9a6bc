// middleware — net/http мидлвары HTTP-слоя: recover, request id,
// request-scoped логирование, таймаут и аутентификация по bearer-токену.
// Порядок навешивания задаёт роутер; сами мидлвары друг о друге не знают,
// кроме контракта «RequestID кладёт id в заголовки до Logging».
package middleware

import (
	"net/http"
)

// Middleware — стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// responseRecorder перехватывает статус и объём ответа для access-лога.
// До первого Write/WriteHeader статус равен нулю — «ответ не начат».
type responseRecorder struct {
	http.ResponseWriter
	code  int
	bytes int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w}
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(p []byte) (int, error) {
	// Write без явного WriteHeader означает 200.
	if rec.code == 0 {
		rec.code = http.StatusOK
	}

	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n

	return n, err
}
