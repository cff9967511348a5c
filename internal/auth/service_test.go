package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

type memStore struct {
	users    map[string]repo.User
	sessions map[string]repo.Session
}

func newMemStore() *memStore {
	return &memStore{users: map[string]repo.User{}, sessions: map[string]repo.Session{}}
}

func (m *memStore) Create(_ context.Context, email, passwordHash, name, role string) (string, error) {
	id := uuid.NewString()
	m.users[id] = repo.User{ID: id, Email: email, PasswordHash: passwordHash, Name: name, Role: role, CreatedAt: time.Now()}
	return id, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (repo.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id string) (repo.User, error) {
	u, ok := m.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateSession(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.sessions[tokenHash] = repo.Session{ID: uuid.NewString(), UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetSession(_ context.Context, tokenHash string) (repo.Session, error) {
	s, ok := m.sessions[tokenHash]
	if !ok {
		return repo.Session{}, repo.ErrNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-please-rotate"})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, store *memStore, email, password, role string) string {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	id, err := store.Create(context.Background(), email, hash, "Test User", role)
	require.NoError(t, err)
	return id
}

func TestLoginIssuesRoleClaim(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "vendor@example.com", "s3cretpass", common.RoleVendor)
	svc := newTestService(t, store)

	result, err := svc.Login(context.Background(), "vendor@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, common.RoleVendor, result.User.Role)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Equal(t, common.RoleVendor, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "user@example.com", "s3cretpass", common.RoleCustomer)
	svc := newTestService(t, store)

	_, err := svc.Login(context.Background(), "user@example.com", "wrong-pass")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, newMemStore())
	_, err := svc.Register(context.Background(), "Name", "a@b.com", "longenough", "admin")
	require.Error(t, err)
}

func TestRefreshRotatesSession(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "user@example.com", "s3cretpass", common.RoleCustomer)
	svc := newTestService(t, store)

	login, err := svc.Login(context.Background(), "user@example.com", "s3cretpass")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The presented token is single use.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestRefreshExpiredSession(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "user@example.com", "s3cretpass", common.RoleCustomer)
	svc := newTestService(t, store)

	login, err := svc.Login(context.Background(), "user@example.com", "s3cretpass")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(48 * time.Hour) })
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
	require.Empty(t, store.sessions)
}

func TestLogoutRevokesSession(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "user@example.com", "s3cretpass", common.RoleCustomer)
	svc := newTestService(t, store)

	login, err := svc.Login(context.Background(), "user@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Len(t, store.sessions, 1)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))
	require.Empty(t, store.sessions)
}
