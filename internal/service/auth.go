package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orders_service/internal/auth"
	"orders_service/internal/models"
	"orders_service/internal/storage"
)

// AuthResult is the shape both register and login return.
type AuthResult struct {
	User  models.UserSummary `json:"user"`
	Token string             `json:"token"`
}

type AuthService struct {
	users  storage.UserStore
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewAuthService(users storage.UserStore, tokens *auth.TokenManager, lgr *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    lgr,
	}
}

// Register creates a user and issues a token. The pre-insert lookup keeps the
// common duplicate case cheap; the unique index on email is the authority
// under concurrent registration.
func (s *AuthService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "service.Register"

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("user_id", user.ID.String()))

	return AuthResult{
		User:  models.UserSummary{ID: user.ID, Email: user.Email},
		Token: token,
	}, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "service.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if ok := auth.CheckPasswordHash(user.PasswordHash, password); !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("user_id", user.ID.String()))

	return AuthResult{
		User:  models.UserSummary{ID: user.ID, Email: user.Email},
		Token: token,
	}, nil
}
