package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-identity-service/internal/errors"
	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/service"
	"github.com/pribylovaa/go-identity-service/internal/token"
)

type claimsKey struct{}

// ClaimsFrom достаёт claims аутентифицированного субъекта из контекста.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok
}

// Authenticate проверяет bearer-токен ожидаемого типа и кладёт claims
// в контекст запроса. Любой отказ валидации — 401.
func Authenticate(tokens *token.Manager, expected token.Type) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			claims, err := tokens.Validate(raw, expected)
			if err != nil {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles пропускает запрос только для субъектов с одной из
// перечисленных ролей. Роль берётся из claims access-токена: смена роли
// в БД не видна до переизвлечения пары. Ставится строго после Authenticate.
func RequireRoles(roles ...models.Role) Middleware {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				apierrors.WriteError(w, r, service.ErrPermissionDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken извлекает токен из Authorization: Bearer <jwt>.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
