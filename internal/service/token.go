package service

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/token"
)

// issueTokenPair выпускает пару токенов для пользователя.
//
// Сначала создаётся запись refresh-токена в хранилище, затем её id
// становится jti ОБЕИХ частей пары: наличие записи — критерий валидности
// refresh-токена, удаление записи — отзыв. Если подпись не удалась,
// осиротевшая запись удаляется best-effort.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	record, err := s.storage.SaveRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, err := s.tokens.Generate(record.ID, user.ID, token.AccessToken, user.Role)
	if err != nil {
		_ = s.storage.DeleteRefreshToken(ctx, record.ID)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.tokens.Generate(record.ID, user.ID, token.RefreshToken, user.Role)
	if err != nil {
		_ = s.storage.DeleteRefreshToken(ctx, record.ID)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
