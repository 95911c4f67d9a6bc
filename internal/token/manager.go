// token реализует подпись и проверку bearer-токенов (access/refresh).
//
// Менеджер statless: ключи и срок жизни фиксируются на старте процесса,
// всё состояние сессии живёт в claims и в хранилище refresh-токенов.
// Ошибки конфигурации ключей — фатальные ошибки конструктора, а не
// ошибки времени выполнения.
package token

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken — токен некорректен по формату/подписи либо
	// его тип не совпадает с ожидаемым. Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — подпись и тип корректны, но срок действия истёк.
	// Для клиента неотличим от ErrInvalidToken (тоже 401), разделение
	// нужно только для диагностики.
	ErrTokenExpired = errors.New("token expired")
)

// Type — тип токена в паре.
type Type string

const (
	AccessToken  Type = "access_token"
	RefreshToken Type = "refresh_token"
)

// noExpiry — сигнальное значение exp «токен бессрочный».
// Проверяется явно: exp=0 это не «просрочен в 1970», а отключённый срок.
const noExpiry int64 = 0

// Claims — подписываемая полезная нагрузка токена.
//
// jti совпадает у обеих частей пары и равен id записи refresh-токена
// в хранилище; sub — идентификатор пользователя; role — роль на момент
// выпуска. Интерфейс jwt.Claims реализован вручную, чтобы exp=0
// отключал проверку срока явным образом.
type Claims struct {
	JTI       uuid.UUID   `json:"jti"`
	TokenType Type        `json:"token_type"`
	Subject   uuid.UUID   `json:"sub"`
	Exp       int64       `json:"exp"`
	Role      models.Role `json:"role"`
}

// GetExpirationTime возвращает nil при exp=0 — бессрочный токен
// не проходит проверку срока вовсе.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == noExpiry {
		return nil, nil
	}

	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c *Claims) GetIssuer() (string, error)              { return "", nil }
func (c *Claims) GetSubject() (string, error)             { return c.Subject.String(), nil }
func (c *Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Manager — подписывает и проверяет токены асимметричной парой ключей.
type Manager struct {
	privateKey        *rsa.PrivateKey
	publicKey         *rsa.PublicKey
	method            jwt.SigningMethod
	accessExpSeconds  int64
	refreshExpSeconds int64
}

// New создаёт Manager из конфигурации.
// Ключи ожидаются в base64(PEM); невалидные ключи или неизвестный
// алгоритм — ошибка конструктора (fail-fast на старте процесса).
func New(cfg config.JWTConfig) (*Manager, error) {
	const op = "token.manager.New"

	privPEM, err := base64.StdEncoding.DecodeString(cfg.PrivateKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("%s: decode private key: %w", op, err)
	}

	pubPEM, err := base64.StdEncoding.DecodeString(cfg.PublicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("%s: decode public key: %w", op, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: parse private key: %w", op, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: parse public key: %w", op, err)
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("%s: unknown signing algorithm %q", op, cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("%s: algorithm %q is not an RSA method", op, cfg.Algorithm)
	}

	return &Manager{
		privateKey:        privateKey,
		publicKey:         publicKey,
		method:            method,
		accessExpSeconds:  cfg.AccessExpSeconds,
		refreshExpSeconds: cfg.RefreshExpSeconds,
	}, nil
}

// Generate подписывает claims для токена заданного типа.
//
// Срок берётся из конфигурации по типу токена; значение ровно -1
// означает «бессрочно» и отображается в exp=0. Это сравнение выполняется
// явно — отрицательные и нулевые сроки, отличные от -1, дают уже
// просроченный exp и валидацию не пройдут.
func (m *Manager) Generate(jti, userID uuid.UUID, tokenType Type, role models.Role) (string, error) {
	const op = "token.manager.Generate"

	expSeconds := m.accessExpSeconds
	if tokenType == RefreshToken {
		expSeconds = m.refreshExpSeconds
	}

	exp := noExpiry
	if expSeconds != -1 {
		exp = time.Now().UTC().Unix() + expSeconds
	}

	claims := &Claims{
		JTI:       jti,
		TokenType: tokenType,
		Subject:   userID,
		Exp:       exp,
		Role:      role,
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Validate проверяет токен в два прохода.
//
// Первый проход («relaxed») проверяет подпись и структуру, игнорируя
// срок: так просроченный, но правильно типизированный токен отличим в
// логах от токена не того типа. Второй проход («hardened») повторяет
// разбор с проверкой срока — но только если exp токена не сигнальный 0.
// Оба отказа для клиента означают одно: токен не принят.
func (m *Manager) Validate(tokenStr string, expected Type) (*Claims, error) {
	const op = "token.manager.Validate"

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	}

	relaxed := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, relaxed, keyFunc,
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		slog.Warn("token_decode_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if relaxed.TokenType != expected {
		slog.Warn("token_type_mismatch",
			slog.String("op", op),
			slog.String("expected", string(expected)),
			slog.String("actual", string(relaxed.TokenType)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if relaxed.Exp == noExpiry {
		return relaxed, nil
	}

	hardened := &Claims{}
	_, err = jwt.ParseWithClaims(tokenStr, hardened, keyFunc,
		jwt.WithValidMethods([]string{m.method.Alg()}),
	)
	if err != nil {
		slog.Warn("token_expired",
			slog.String("op", op),
			slog.String("token_type", string(expected)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return hardened, nil
}
