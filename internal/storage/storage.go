package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-identity-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/refresh-токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/id).
	ErrAlreadyExists = errors.New("already exists")
)

// ListUsersParams — параметры постраничной выборки пользователей.
// Page нумеруется с 1; OrderBy — одно из name/created_at/updated_at
// (неизвестное значение трактуется как created_at).
type ListUsersParams struct {
	Page     uint64
	PageSize uint64
	OrderBy  string
}

// UserPage — страница выборки и общее число записей.
type UserPage struct {
	Users []models.User
	Total uint64
}

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит ПАРОЛЬНОГО пользователя по email.
	// Федеративные учётки (auth_id IS NOT NULL) из поиска исключены,
	// чтобы невыставленный пароль никогда не «совпал».
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByProvider находит пользователя по паре (провайдер, внешний subject).
	UserByProvider(ctx context.Context, provider models.Provider, authID string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsers возвращает страницу пользователей.
	ListUsers(ctx context.Context, params ListUsersParams) (*UserPage, error)
	// UpdateLoggedInAt фиксирует момент входа.
	UpdateLoggedInAt(ctx context.Context, id uuid.UUID) error
	// UpdateRole меняет роль пользователя.
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	// UpdateStatus меняет статус пользователя (идемпотентно).
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error
	// UpdateProfileURL сохраняет ссылку на загруженный аватар.
	UpdateProfileURL(ctx context.Context, id uuid.UUID, profileURL string) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
// Записи неизменяемы: create/lookup/delete, без update.
type RefreshTokenStorage interface {
	// SaveRefreshToken создаёт запись и возвращает её со сгенерированным id.
	SaveRefreshToken(ctx context.Context, userID uuid.UUID) (*models.RefreshToken, error)
	// RefreshTokenByID находит запись по id (jti).
	RefreshTokenByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет запись (отзыв). Удаление несуществующего
	// id ошибкой не является — операция идемпотентна.
	DeleteRefreshToken(ctx context.Context, id uuid.UUID) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
