package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveRefreshToken создаёт запись refresh-токена; id генерирует БД
// и он же становится jti пары токенов.
func (s *Storage) SaveRefreshToken(ctx context.Context, userID uuid.UUID) (*models.RefreshToken, error) {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
		INSERT INTO refresh_tokens(user_id)
		VALUES ($1)
		RETURNING id, user_id, created_at
	`

	var token models.RefreshToken
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&token.ID,
		&token.UserID,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// RefreshTokenByID находит запись по id (jti).
// Наличие записи — критерий валидности refresh-токена.
func (s *Storage) RefreshTokenByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokenByID"

	query := `
		SELECT id, user_id, created_at
		FROM refresh_tokens
		WHERE id = $1
	`

	var token models.RefreshToken
	err := s.db.QueryRow(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &token, nil
}

// DeleteRefreshToken удаляет запись (отзыв токена).
// Идемпотентна: удаление несуществующего id — не ошибка.
func (s *Storage) DeleteRefreshToken(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteRefreshToken"

	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
