package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `
	id, email, password_hash, name, profile_url, role, status,
	auth_id, auth_provider, logged_in_at, created_at, updated_at, deleted_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user         models.User
		authID       *string
		authProvider *string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.ProfileURL,
		&user.Role,
		&user.Status,
		&authID,
		&authProvider,
		&user.LoggedInAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if authID != nil {
		user.AuthID = *authID
	}
	if authProvider != nil {
		user.AuthProvider = models.Provider(*authProvider)
	}

	return &user, nil
}

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, password_hash, name, profile_url, role, status, auth_id, auth_provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.ProfileURL,
		user.Role,
		user.Status,
		user.AuthID,
		string(user.AuthProvider),
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByEmail находит парольного пользователя по email.
// Федеративные учётки (auth_id IS NOT NULL) исключены из поиска.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND auth_id IS NULL AND deleted_at IS NULL
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByProvider находит пользователя по паре (провайдер, внешний subject).
func (s *Storage) UserByProvider(ctx context.Context, provider models.Provider, authID string) (*models.User, error) {
	const op = "storage.postgres.UserByProvider"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE auth_provider = $1 AND auth_id = $2 AND deleted_at IS NULL
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, string(provider), authID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListUsers возвращает страницу пользователей, упорядоченную по OrderBy.
// Сортировка из белого списка; неизвестное значение — created_at.
func (s *Storage) ListUsers(ctx context.Context, params storage.ListUsersParams) (*storage.UserPage, error) {
	const op = "storage.postgres.ListUsers"

	orderBy := "created_at"
	switch params.OrderBy {
	case "name", "created_at", "updated_at":
		orderBy = params.OrderBy
	}

	offset := (params.Page - 1) * params.PageSize

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY ` + orderBy + `
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, params.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var total uint64
	countQuery := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`
	if err := s.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.UserPage{Users: users, Total: total}, nil
}

// UpdateLoggedInAt фиксирует момент входа.
func (s *Storage) UpdateLoggedInAt(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.UpdateLoggedInAt"

	query := `
		UPDATE users
		SET logged_in_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	return s.execExpectRow(ctx, op, query, id)
}

// UpdateRole меняет роль пользователя.
func (s *Storage) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	const op = "storage.postgres.UpdateRole"

	query := `
		UPDATE users
		SET role = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	return s.execExpectRow(ctx, op, query, id, role)
}

// UpdateStatus меняет статус пользователя.
func (s *Storage) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	const op = "storage.postgres.UpdateStatus"

	query := `
		UPDATE users
		SET status = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	return s.execExpectRow(ctx, op, query, id, status)
}

// UpdateProfileURL сохраняет ссылку на загруженный аватар.
func (s *Storage) UpdateProfileURL(ctx context.Context, id uuid.UUID, profileURL string) error {
	const op = "storage.postgres.UpdateProfileURL"

	query := `
		UPDATE users
		SET profile_url = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	return s.execExpectRow(ctx, op, query, id, profileURL)
}

// execExpectRow выполняет запрос, где отсутствие затронутых строк
// означает ErrNotFound.
func (s *Storage) execExpectRow(ctx context.Context, op, query string, args ...any) error {
	cmdTag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
