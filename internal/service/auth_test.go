package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orders_service/internal/auth"
	"orders_service/internal/models"
	"orders_service/internal/storage"
)

type stubUserStore struct {
	users map[string]models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]models.User)}
}

func (s *stubUserStore) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	if _, ok := s.users[email]; ok {
		return models.User{}, storage.ErrDuplicateKey
	}

	user := models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.users[email] = user

	return user, nil
}

func (s *stubUserStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()

	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return tm
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	tm := testTokenManager(t)
	svc := NewAuthService(newStubUserStore(), tm, testLogger())

	result, err := svc.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", result.User.Email)
	assert.NotEqual(t, uuid.Nil, result.User.ID)

	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestRegisterDistinctUsersGetDistinctTokens(t *testing.T) {
	tm := testTokenManager(t)
	svc := NewAuthService(newStubUserStore(), tm, testLogger())

	first, err := svc.Register(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), "b@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, first.User.ID, second.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), testTokenManager(t), testLogger())

	_, err := svc.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user@example.com", "different-password")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// raceUserStore simulates a concurrent registration winning between the
// existence check and the insert.
type raceUserStore struct{}

func (raceUserStore) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	return models.User{}, storage.ErrDuplicateKey
}

func (raceUserStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, storage.ErrNotFound
}

func TestRegisterDuplicateUnderRace(t *testing.T) {
	svc := NewAuthService(raceUserStore{}, testTokenManager(t), testLogger())

	_, err := svc.Register(context.Background(), "user@example.com", "secret123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginSuccess(t *testing.T) {
	tm := testTokenManager(t)
	svc := NewAuthService(newStubUserStore(), tm, testLogger())

	registered, err := svc.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)

	claims, err := tm.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := NewAuthService(newStubUserStore(), testTokenManager(t), testLogger())

	_, err := svc.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), "user@example.com", "wrong-password")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "secret123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginDoesNotWrite(t *testing.T) {
	store := newStubUserStore()
	svc := NewAuthService(store, testTokenManager(t), testLogger())

	_, err := svc.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	assert.Len(t, store.users, 1)
}
