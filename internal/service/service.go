// service содержит бизнес-логику identity-сервиса: регистрация и вход
// (пароль/OAuth2), выпуск и отзыв токенов, операции над пользователями.
//
// Слой не знает о транспорте: ошибки — сентинели этого пакета,
// маппинг в HTTP-статусы выполняет транспорт.
package service

import (
	"errors"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/oauth2"
	"github.com/pribylovaa/go-identity-service/internal/queue"
	"github.com/pribylovaa/go-identity-service/internal/storage"
	"github.com/pribylovaa/go-identity-service/internal/token"
)

var (
	// ErrInvalidCredentials — пароль не совпал. Неизвестный email — это
	// ErrUserNotFound: случаи различимы в таксономии. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken — email уже занят. Транспорт: 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound — пользователь не найден. Транспорт: 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken — refresh-токен не прошёл проверку подписи/типа/срока
	// либо отозван (записи нет в хранилище). Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnknownProvider — неизвестный OAuth2-провайдер. Транспорт: 400.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrOAuthExchange — внешний провайдер отклонил код. Транспорт: 401.
	ErrOAuthExchange = errors.New("oauth2 exchange rejected")

	// ErrInvalidArgument — нарушение валидации входа. Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPermissionDenied — роли субъекта недостаточно для операции.
	// Возвращается транспортным role gate. Транспорт: 403.
	ErrPermissionDenied = errors.New("permission denied")
)

// jobKindUserEvents — вид задач для событий жизненного цикла пользователя.
// Должен совпадать с ключом в конфигурации aws.jobs.
const jobKindUserEvents = "user_events"

// Service — бизнес-логика identity-сервиса.
type Service struct {
	storage  storage.Storage
	tokens   *token.Manager
	producer queue.Producer
	oauth    oauth2.Service
	avatars  storage.AvatarsStorage
	cfg      *config.Config
}

// New создаёт Service. Producer, oauth и avatars могут быть nil в
// конфигурациях без очереди/федерации/аватаров — соответствующие
// операции тогда возвращают ошибку или молча пропускают отправку.
func New(cfg *config.Config, st storage.Storage, tokens *token.Manager, producer queue.Producer, oauth oauth2.Service, avatars storage.AvatarsStorage) *Service {
	return &Service{
		storage:  st,
		tokens:   tokens,
		producer: producer,
		oauth:    oauth,
		avatars:  avatars,
		cfg:      cfg,
	}
}
