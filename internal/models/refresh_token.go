package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — запись о выданном refresh-токене.
//
// ID записи совпадает с jti обеих подписанных частей пары (access+refresh).
// Сам факт существования записи означает валидность refresh-токена;
// удаление записи — единственный механизм отзыва. Запись неизменяема.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}
