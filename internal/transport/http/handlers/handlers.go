// handlers — REST-обработчики identity-сервиса поверх сервисного слоя.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/service"
)

// Handlers агрегирует зависимости (сервисный слой).
type Handlers struct {
	Service *service.Service
}

func New(s *service.Service) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — локальная ошибка парсинга -> 400.
func errInvalidArgument() error {
	return fmt.Errorf("malformed request body: %w", service.ErrInvalidArgument)
}

// tokenPairResponse — ответ операций, выпускающих токены.
// refresh_token пуст у ответа /auth/refresh (ротации нет).
type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func tokenPairFromModel(pair *models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

// userResponse — публичное представление пользователя (без хэша пароля).
type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	ProfileURL   string `json:"profile_url,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	AuthProvider string `json:"auth_provider,omitempty"`
	LoggedInAt   string `json:"logged_in_at,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func userFromModel(u *models.User) userResponse {
	resp := userResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		ProfileURL:   u.ProfileURL,
		Role:         string(u.Role),
		Status:       string(u.Status),
		AuthProvider: string(u.AuthProvider),
		CreatedAt:    u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    u.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}

	if u.LoggedInAt != nil {
		resp.LoggedInAt = u.LoggedInAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	return resp
}
