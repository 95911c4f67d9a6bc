package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFoundAvatar — объект (ключ) отсутствует в бакете.
	ErrNotFoundAvatar = errors.New("avatar not found")
	// ErrInvalidArgument — нарушены ограничения запроса (тип/размер).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UploadInfo — информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечная URL для PUT-запроса;
//   - AvatarKey: ключ будущего объекта в бакете;
//   - Expires: время жизни подписи;
//   - RequiredHeader: заголовки, которые клиент обязан передать при PUT.
type UploadInfo struct {
	UploadURL      string
	AvatarKey      string
	Expires        time.Duration
	RequiredHeader map[string]string
}

// AvatarsStorage — контракт объектного хранилища аватаров.
type AvatarsStorage interface {
	// AvatarUploadURL генерирует presigned PUT; внутри — валидация
	// contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID uuid.UUID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет факт загрузки по key (наличие, тип, размер)
	// и возвращает публичный URL объекта.
	CheckAvatarUpload(ctx context.Context, userID uuid.UUID, key string) (string, error)
}
