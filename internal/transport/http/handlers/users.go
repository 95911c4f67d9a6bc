package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/pribylovaa/go-identity-service/internal/errors"
	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/service"
	"github.com/pribylovaa/go-identity-service/internal/storage"
	"github.com/pribylovaa/go-identity-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Me возвращает профиль субъекта access-токена.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, err := h.Service.UserByID(r.Context(), claims.Subject)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

type userPageResponse struct {
	Users []userResponse `json:"users"`
	Total uint64         `json:"total"`
}

// ListUsers возвращает страницу пользователей (только для admin).
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := storage.ListUsersParams{
		OrderBy: r.URL.Query().Get("order_by"),
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}
		params.Page = page
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		size, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}
		params.PageSize = size
	}

	page, err := h.Service.Users(r.Context(), params)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	resp := userPageResponse{
		Users: make([]userResponse, 0, len(page.Users)),
		Total: page.Total,
	}
	for i := range page.Users {
		resp.Users = append(resp.Users, userFromModel(&page.Users[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole меняет роль пользователя (только для admin).
func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in updateRoleRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	user, err := h.Service.UpdateRole(r.Context(), id, models.Role(in.Role))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus меняет статус учётки (только для admin).
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in updateStatusRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	user, err := h.Service.UpdateStatus(r.Context(), id, models.Status(in.Status))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

type avatarPresignRequest struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

type avatarPresignResponse struct {
	UploadURL      string            `json:"upload_url"`
	AvatarKey      string            `json:"avatar_key"`
	ExpiresSeconds int64             `json:"expires_seconds"`
	RequiredHeader map[string]string `json:"required_header,omitempty"`
}

// AvatarPresign выдаёт presigned PUT для загрузки аватара субъекта.
func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in avatarPresignRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	info, err := h.Service.AvatarUploadURL(r.Context(), claims.Subject, in.ContentType, in.ContentLength)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, avatarPresignResponse{
		UploadURL:      info.UploadURL,
		AvatarKey:      info.AvatarKey,
		ExpiresSeconds: int64(info.Expires.Seconds()),
		RequiredHeader: info.RequiredHeader,
	})
}

type avatarConfirmRequest struct {
	AvatarKey string `json:"avatar_key"`
}

type avatarConfirmResponse struct {
	ProfileURL string `json:"profile_url"`
}

// AvatarConfirm подтверждает загрузку и сохраняет публичный URL в профиле.
func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in avatarConfirmRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	publicURL, err := h.Service.ConfirmAvatarUpload(r.Context(), claims.Subject, in.AvatarKey)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, avatarConfirmResponse{ProfileURL: publicURL})
}
