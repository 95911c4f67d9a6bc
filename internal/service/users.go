package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/go-identity-service/internal/models"
	logctx "github.com/pribylovaa/go-identity-service/internal/pkg/log"
	"github.com/pribylovaa/go-identity-service/internal/storage"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserByID возвращает пользователя по id.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.users.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Users возвращает страницу пользователей.
// Нулевые параметры нормализуются: page=1, page_size=20; верхняя
// граница page_size — 100.
func (s *Service) Users(ctx context.Context, params storage.ListUsersParams) (*storage.UserPage, error) {
	const op = "service.users.Users"

	if params.Page == 0 {
		params.Page = 1
	}
	if params.PageSize == 0 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	page, err := s.storage.ListUsers(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// UpdateRole меняет роль пользователя и возвращает обновлённую модель.
// Выпущенные access-токены новую роль не увидят до переизвлечения пары.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	const op = "service.users.UpdateRole"

	if !role.Valid() {
		return nil, fmt.Errorf("%s: %q: %w", op, role, ErrInvalidArgument)
	}

	if err := s.storage.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("user_role_updated",
		slog.String("user_id", id.String()),
		slog.String("role", string(role)),
	)

	return s.UserByID(ctx, id)
}

// UpdateStatus меняет статус учётки (идемпотентно).
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.User, error) {
	const op = "service.users.UpdateStatus"

	if status != models.StatusRegistered && status != models.StatusVerified {
		return nil, fmt.Errorf("%s: %q: %w", op, status, ErrInvalidArgument)
	}

	if err := s.storage.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.UserByID(ctx, id)
}

// AvatarUploadURL выдаёт presigned PUT для загрузки аватара.
func (s *Service) AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*storage.UploadInfo, error) {
	const op = "service.users.AvatarUploadURL"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: avatars storage is not configured", op)
	}

	if _, err := s.UserByID(ctx, userID); err != nil {
		return nil, err
	}

	info, err := s.avatars.AvatarUploadURL(ctx, userID, contentType, contentLength)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

// ConfirmAvatarUpload проверяет факт загрузки объекта и сохраняет
// публичный URL аватара в профиле.
func (s *Service) ConfirmAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	const op = "service.users.ConfirmAvatarUpload"

	if s.avatars == nil {
		return "", fmt.Errorf("%s: avatars storage is not configured", op)
	}

	publicURL, err := s.avatars.CheckAvatarUpload(ctx, userID, key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFoundAvatar):
			return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		case errors.Is(err, storage.ErrInvalidArgument):
			return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateProfileURL(ctx, userID, publicURL); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("avatar_updated", slog.String("user_id", userID.String()))

	return publicURL, nil
}
