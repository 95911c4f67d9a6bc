package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли значение допустимой ролью.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Status — статус учётной записи.
// Новая учётная запись создаётся в статусе registered и переводится
// в verified асинхронно — обработчиком события верификации.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusVerified   Status = "verified"
)

// Provider — внешний OAuth2-провайдер. Закрытое перечисление:
// неизвестное значение — ошибка клиента, а не повод для догадок.
type Provider string

const (
	ProviderGoogle Provider = "google"
)

// ParseProvider проверяет строку на принадлежность перечислению.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderGoogle:
		return ProviderGoogle, true
	}

	return "", false
}

// User — модель пользователя.
//
// Учётная запись бывает парольной (PasswordHash != "", AuthID == "")
// или федеративной (AuthID/AuthProvider заполнены, пароль отсутствует).
// Поиск по email для входа по паролю выполняется только среди парольных
// учёток — см. storage.UserStorage.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	ProfileURL   string
	Role         Role
	Status       Status
	AuthID       string
	AuthProvider Provider
	LoggedInAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
