package postgres

import (
	"context"
	"testing"

	"github.com/pribylovaa/go-identity-service/internal/models"
	"github.com/pribylovaa/go-identity-service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// seedUser создаёт парольного пользователя.
func seedUser(t *testing.T, st *Storage, email string) *models.User {
	t.Helper()

	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		Name:         "User",
		Role:         models.RoleUser,
		Status:       models.StatusRegistered,
	}
	require.NoError(t, st.SaveUser(context.Background(), u))

	return u
}

// seedFederatedUser создаёт федеративную учётку.
func seedFederatedUser(t *testing.T, st *Storage, email, authID string) *models.User {
	t.Helper()

	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Federated",
		Role:         models.RoleUser,
		Status:       models.StatusVerified,
		AuthID:       authID,
		AuthProvider: models.ProviderGoogle,
	}
	require.NoError(t, st.SaveUser(context.Background(), u))

	return u
}

func TestIntegration_SaveUser_And_Lookups_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "user@example.com")

	got, err := st.UserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, models.RoleUser, got.Role)
	require.Equal(t, models.StatusRegistered, got.Status)

	// email в схеме CITEXT — поиск регистронезависимый.
	got, err = st.UserByEmail(ctx, "USER@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}

func TestIntegration_SaveUser_EmailUniqueViolation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	seedUser(t, st, "user@example.com")

	dup := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: "hash2",
		Role:         models.RoleUser,
		Status:       models.StatusRegistered,
	}
	err := st.SaveUser(context.Background(), dup)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_SaveUser_FederatedEmailDoesNotBlockPasswordAccount(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	// Частичный уникальный индекс действует только на парольные учётки:
	// занятый федеративной учёткой email свободен для парольной регистрации.
	fed := seedFederatedUser(t, st, "shared@example.com", "google-sub-shared")
	pwd := seedUser(t, st, "shared@example.com")

	got, err := st.UserByEmail(ctx, "shared@example.com")
	require.NoError(t, err)
	require.Equal(t, pwd.ID, got.ID)

	got, err = st.UserByProvider(ctx, models.ProviderGoogle, "google-sub-shared")
	require.NoError(t, err)
	require.Equal(t, fed.ID, got.ID)
}

func TestIntegration_UserByEmail_SkipsFederatedAccounts(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	fed := seedFederatedUser(t, st, "fed@example.com", "google-sub-1")

	// Федеративная учётка не видна парольному входу.
	_, err := st.UserByEmail(ctx, "fed@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Но находится по паре (провайдер, subject).
	got, err := st.UserByProvider(ctx, models.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, fed.ID, got.ID)
	require.Empty(t, got.PasswordHash)
}

func TestIntegration_Lookups_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	_, err := st.UserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByProvider(ctx, models.ProviderGoogle, "absent")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_ListUsers_Pagination(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	seedUser(t, st, "a@example.com")
	seedUser(t, st, "b@example.com")
	seedUser(t, st, "c@example.com")

	page, err := st.ListUsers(ctx, storage.ListUsersParams{Page: 1, PageSize: 2, OrderBy: "created_at"})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	require.EqualValues(t, 3, page.Total)

	page, err = st.ListUsers(ctx, storage.ListUsersParams{Page: 2, PageSize: 2, OrderBy: "created_at"})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	require.EqualValues(t, 3, page.Total)

	// Неизвестная сортировка не ломает запрос.
	page, err = st.ListUsers(ctx, storage.ListUsersParams{Page: 1, PageSize: 10, OrderBy: "password_hash"})
	require.NoError(t, err)
	require.Len(t, page.Users, 3)
}

func TestIntegration_UpdateFields(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := seedUser(t, st, "user@example.com")

	require.NoError(t, st.UpdateRole(ctx, u.ID, models.RoleAdmin))
	require.NoError(t, st.UpdateStatus(ctx, u.ID, models.StatusVerified))
	require.NoError(t, st.UpdateProfileURL(ctx, u.ID, "https://cdn.example/a.png"))
	require.NoError(t, st.UpdateLoggedInAt(ctx, u.ID))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, got.Role)
	require.Equal(t, models.StatusVerified, got.Status)
	require.Equal(t, "https://cdn.example/a.png", got.ProfileURL)
	require.NotNil(t, got.LoggedInAt)

	// Обновление несуществующего id -> ErrNotFound.
	err = st.UpdateRole(ctx, uuid.New(), models.RoleAdmin)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
