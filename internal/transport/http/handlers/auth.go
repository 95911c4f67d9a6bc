package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-identity-service/internal/errors"
	"github.com/pribylovaa/go-identity-service/internal/service"
	"github.com/pribylovaa/go-identity-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignUp регистрирует учётку и возвращает её представление.
// Токены регистрация не выпускает — за ними клиент идёт в /auth/signin.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var in signUpRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	user, err := h.Service.SignUp(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromModel(user))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var in signInRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	pair, err := h.Service.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairFromModel(pair))
}

// Refresh выпускает новый access-токен. Маршрут защищён refresh-токеном:
// проверенные claims кладёт в контекст middleware.Authenticate.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	pair, err := h.Service.Refresh(r.Context(), claims.JTI, claims.Subject, claims.Role)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairFromModel(pair))
}

// SignOut отзывает текущую сессию. Маршрут защищён access-токеном;
// jti сессии берётся из его claims.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.Service.SignOut(r.Context(), claims.Subject, claims.JTI); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type oauthRedirectResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// OAuthRedirect выдаёт URL страницы согласия провайдера.
// state генерирует клиент и передаёт его в query.
func (h *Handlers) OAuthRedirect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	state := r.URL.Query().Get("state")

	url, err := h.Service.OAuth2RedirectURL(r.Context(), provider, state)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, oauthRedirectResponse{RedirectURL: url})
}

// OAuthCallback завершает authorization code flow провайдера.
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	if code == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	pair, err := h.Service.OAuth2SignIn(r.Context(), provider, code)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairFromModel(pair))
}
