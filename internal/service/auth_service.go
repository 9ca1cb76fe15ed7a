// Package service holds the business logic behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"devfolio/internal/auth"
	"devfolio/internal/middleware"
	"devfolio/internal/models"
	"devfolio/internal/observability"
	"devfolio/internal/repository"
	"devfolio/internal/validation"
)

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	now      func() time.Time
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. An email that is already registered is a conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		observability.Registrations.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		observability.Registrations.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing != nil {
		observability.Registrations.WithLabelValues("duplicate").Inc()
		return nil, models.NewConflictError("User already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, models.NewValidationError(err.Error())
		}
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Password: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsKind(err, models.KindConflict) {
			observability.Registrations.WithLabelValues("duplicate").Inc()
		} else {
			observability.Registrations.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	observability.Registrations.WithLabelValues("success").Inc()
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends one bcrypt comparison so unknown emails take as long as wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("devfolio-timing-equalizer")
	})
	_ = auth.VerifyPassword(password, dummyHash)
}

// Login verifies credentials and issues a session token. Unknown emails and wrong passwords
// produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		observability.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil {
		burnPasswordCheck(in.Password)
		observability.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewInvalidCredentialsError()
	}
	if !auth.VerifyPassword(in.Password, user.Password) {
		observability.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, models.NewInvalidCredentialsError()
	}

	issuedAt := s.now()
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	observability.Logins.WithLabelValues("success").Inc()
	return &LoginResult{
		Token:     token,
		ExpiresAt: issuedAt.Add(auth.TokenTTL),
		User:      user,
	}, nil
}
