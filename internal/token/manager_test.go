package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/pribylovaa/go-identity-service/internal/config"
	"github.com/pribylovaa/go-identity-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Тесты пакета token.
//
// Срок жизни в тестах задаётся числом секунд, поэтому «просроченный»
// токен получается без time.Sleep: отрицательный срок (кроме
// сигнального -1) даёт exp в прошлом.

// testKeys генерирует RSA-пару и возвращает её в виде base64(PEM),
// как ключи приходят из конфигурации.
func testKeys(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return base64.StdEncoding.EncodeToString(privPEM), base64.StdEncoding.EncodeToString(pubPEM)
}

func testManager(t *testing.T, accessExp, refreshExp int64) *Manager {
	t.Helper()

	priv, pub := testKeys(t)
	m, err := New(config.JWTConfig{
		PrivateKeyBase64:  priv,
		PublicKeyBase64:   pub,
		Algorithm:         "RS256",
		AccessExpSeconds:  accessExp,
		RefreshExpSeconds: refreshExp,
	})
	require.NoError(t, err)

	return m
}

func TestNew_BadKeysOrAlgorithm(t *testing.T) {
	t.Parallel()

	priv, pub := testKeys(t)

	_, err := New(config.JWTConfig{PrivateKeyBase64: "%%%", PublicKeyBase64: pub, Algorithm: "RS256"})
	require.Error(t, err)

	_, err = New(config.JWTConfig{PrivateKeyBase64: priv, PublicKeyBase64: "not-base64!", Algorithm: "RS256"})
	require.Error(t, err)

	_, err = New(config.JWTConfig{PrivateKeyBase64: priv, PublicKeyBase64: pub, Algorithm: "HS256"})
	require.Error(t, err)

	_, err = New(config.JWTConfig{PrivateKeyBase64: priv, PublicKeyBase64: pub, Algorithm: "XX999"})
	require.Error(t, err)
}

func TestGenerateAndValidate_RoundTrip(t *testing.T) {
	t.Parallel()

	m := testManager(t, 900, 2592000)

	jti := uuid.New()
	userID := uuid.New()

	access, err := m.Generate(jti, userID, AccessToken, models.RoleUser)
	require.NoError(t, err)
	refresh, err := m.Generate(jti, userID, RefreshToken, models.RoleUser)
	require.NoError(t, err)

	ac, err := m.Validate(access, AccessToken)
	require.NoError(t, err)
	rc, err := m.Validate(refresh, RefreshToken)
	require.NoError(t, err)

	// jti пары совпадает, sub/role соответствуют входу.
	require.Equal(t, jti, ac.JTI)
	require.Equal(t, jti, rc.JTI)
	require.Equal(t, userID, ac.Subject)
	require.Equal(t, userID, rc.Subject)
	require.Equal(t, models.RoleUser, ac.Role)
	require.Equal(t, models.RoleUser, rc.Role)
	require.Equal(t, AccessToken, ac.TokenType)
	require.Equal(t, RefreshToken, rc.TokenType)
}

func TestValidate_TypeConfusionRejected(t *testing.T) {
	t.Parallel()

	m := testManager(t, 900, 2592000)

	jti := uuid.New()
	userID := uuid.New()

	access, err := m.Generate(jti, userID, AccessToken, models.RoleAdmin)
	require.NoError(t, err)
	refresh, err := m.Generate(jti, userID, RefreshToken, models.RoleAdmin)
	require.NoError(t, err)

	// Подмена типа отклоняется независимо от срока.
	_, err = m.Validate(access, RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate(refresh, AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	// exp в прошлом: срок -60 секунд (не сигнальный -1).
	m := testManager(t, -60, -60)

	token, err := m.Generate(uuid.New(), uuid.New(), AccessToken, models.RoleUser)
	require.NoError(t, err)

	_, err = m.Validate(token, AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Просроченный, но правильно типизированный токен — это ErrTokenExpired;
	// тот же токен не того типа — ErrInvalidToken (type mismatch раньше).
	_, err = m.Validate(token, RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_NoExpirySentinel(t *testing.T) {
	t.Parallel()

	// -1 — «бессрочно»: exp=0, проверка срока отключена явно.
	m := testManager(t, -1, -1)

	token, err := m.Generate(uuid.New(), uuid.New(), RefreshToken, models.RoleUser)
	require.NoError(t, err)

	claims, err := m.Validate(token, RefreshToken)
	require.NoError(t, err)
	require.EqualValues(t, 0, claims.Exp)
}

func TestValidate_GarbageAndForeignKey(t *testing.T) {
	t.Parallel()

	m := testManager(t, 900, 2592000)
	other := testManager(t, 900, 2592000)

	_, err := m.Validate("not-a-jwt", AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Токен, подписанный чужим ключом.
	foreign, err := other.Generate(uuid.New(), uuid.New(), AccessToken, models.RoleUser)
	require.NoError(t, err)

	_, err = m.Validate(foreign, AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}
