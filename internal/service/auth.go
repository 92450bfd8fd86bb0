// Package service holds the business logic between the HTTP handlers and
// the repositories. Services own validation, authorization, and invariant
// enforcement; repositories only persist what they are handed.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// loginFailedMessage is deliberately identical for unknown email, wrong
// password, and deactivated account — the response must not reveal which
// of the three happened.
const loginFailedMessage = "incorrect email or password"

// AuthService handles registration, login, and logout.
type AuthService struct {
	users     repository.UserRepository
	revoked   repository.TokenRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	revoked repository.TokenRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		revoked:   revoked,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the self-service signup payload. There is no role field:
// signup always produces a regular user, and any role a client smuggles
// into the request body is ignored before it gets here.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResult is what a successful login produces.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresIn time.Duration
}

// Register creates a new regular-user account with a hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(input.Password) < 6 {
		return nil, apperror.ValidationFailed("password", "password must be at least 6 characters")
	}
	if len(input.Password) > 72 {
		return nil, apperror.ValidationFailed("password", "password must be 72 characters or fewer")
	}

	hashed, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      model.RoleUser,
		IsActive:  true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies the credentials and mints an access token.
//
// Every failure path returns the same apperror.Unauthenticated so callers
// cannot probe which emails are registered. The bcrypt comparison runs
// even though its cost makes unknown-email and wrong-password responses
// differ slightly in timing; the response body never differs.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthenticated(loginFailedMessage)
	}
	if !user.IsActive {
		return nil, apperror.Unauthenticated(loginFailedMessage)
	}
	if err := s.passwords.Verify(user.Password, password); err != nil {
		return nil, apperror.Unauthenticated(loginFailedMessage)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
	}, nil
}

// Logout revokes the presented token so it stops working immediately,
// before its natural expiry. Logout is idempotent: an absent, malformed,
// or already-revoked token succeeds silently — the caller's goal (not
// being logged in with that token) is met either way.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return nil
	}

	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil
	}

	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}

	s.logger.Info("token revoked", "user_id", claims.UserID)
	return nil
}

// CurrentUser loads the caller's own profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
