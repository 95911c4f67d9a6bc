// http собирает REST-роутер identity-сервиса: публичные auth-маршруты,
// защищённые access-токеном пользовательские маршруты и admin-маршруты
// за role gate.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/service"
	"github.com/pribylovaa/go-identity-service/internal/token"
	"github.com/pribylovaa/go-identity-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-identity-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, tokens *token.Manager, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Публичные маршруты.
	root.Post("/auth/signup", h.SignUp)
	root.Post("/auth/signin", h.SignIn)
	root.Get("/auth/oauth2/{provider}", h.OAuthRedirect)
	root.Get("/auth/oauth2/{provider}/callback", h.OAuthCallback)

	// Refresh — под refresh-токеном: проверку типа и подписи делает
	// middleware, сервис получает уже валидные claims.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, token.RefreshToken))

		r.Post("/auth/refresh", h.Refresh)
	})

	// Маршруты под access-токеном.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, token.AccessToken))

		r.Post("/auth/signout", h.SignOut)
		r.Get("/users/me", h.Me)
		r.Post("/users/me/avatar/presign", h.AvatarPresign)
		r.Post("/users/me/avatar/confirm", h.AvatarConfirm)

		// Admin-only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(models.RoleAdmin))

			r.Get("/users", h.ListUsers)
			r.Patch("/users/{id}/role", h.UpdateRole)
			r.Patch("/users/{id}/status", h.UpdateStatus)
		})
	})

	return root
}
