// log — прокидывание *slog.Logger через context.Context.
// Транспорт кладёт обогащённый логгер в контекст запроса,
// нижние слои достают его через From, не завися от транспорта.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// With возвращает контекст, логгер которого дополнен атрибутами.
// Удобно для долгоживущих задач (реплики консьюмера), где одни и те же
// поля повторяются в каждой записи.
func With(ctx context.Context, args ...any) context.Context {
	return Into(ctx, From(ctx).With(args...))
}
