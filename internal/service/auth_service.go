// Package service implements the application use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/observability"
	"gamelogue/internal/repository"
	"gamelogue/internal/session"
	"gamelogue/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

var (
	// ErrInvalidCredentials is returned for an unknown email and a wrong password alike.
	ErrInvalidCredentials = models.NewUnauthorizedError("invalid email or password")
	// ErrSessionUser is returned when a valid token names a user that no longer exists.
	ErrSessionUser = models.NewUnauthorizedError("invalid or expired session")
)

const (
	msgCreateUserFailed = "failed to create user"
	msgLoginFailed      = "login failed"
)

type AuthService struct {
	userRepo repository.UserRepository
	sessions *session.Manager
	cost     int
	now      func() time.Time
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
	Bio      string
	Avatar   string
}

// Session is a signed token plus where the client should land after signing in.
type Session struct {
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

func NewAuthService(userRepo repository.UserRepository, sessions *session.Manager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		cost:     BcryptCost,
		now:      time.Now,
	}
}

// Register creates an unverified account and returns it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	in.Bio = validation.CleanText(in.Bio)
	if err := validation.ValidateBio(in.Bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.registerFailed(ctx, err)
	}
	if existing != nil {
		observability.RecordAuthEvent("register", "conflict")
		return nil, models.NewConflictError("email already in use")
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.registerFailed(ctx, err)
	}
	if existing != nil {
		observability.RecordAuthEvent("register", "conflict")
		return nil, models.NewConflictError("username already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, s.registerFailed(ctx, err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Bio:          in.Bio,
		Avatar:       in.Avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			observability.RecordAuthEvent("register", "conflict")
			return nil, err
		}
		return nil, s.registerFailed(ctx, err)
	}

	observability.RecordAuthEvent("register", "success")
	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

func (s *AuthService) registerFailed(ctx context.Context, err error) error {
	observability.RecordAuthEvent("register", "error")
	middleware.Logger.ErrorContext(ctx, "registration failed", slog.String("error", err.Error()))
	return models.NewInternalErrorWithMessage(msgCreateUserFailed, err)
}

// Login verifies the credentials and stamps last_login_at.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, s.loginFailed(ctx, err)
	}
	if user == nil {
		observability.RecordAuthEvent("login", "rejected")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		observability.RecordAuthEvent("login", "rejected")
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, s.loginFailed(ctx, err)
	}
	user.LastLoginAt = &now

	observability.RecordAuthEvent("login", "success")
	return user, nil
}

func (s *AuthService) loginFailed(ctx context.Context, err error) error {
	observability.RecordAuthEvent("login", "error")
	middleware.Logger.ErrorContext(ctx, "login failed", slog.String("error", err.Error()))
	return models.NewInternalErrorWithMessage(msgLoginFailed, err)
}

// IssueSession signs a session token for user.
func (s *AuthService) IssueSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.sessions.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: middleware.ProfilePath(user.Username, user.Email),
	}, nil
}

// CurrentUser resolves the account a verified token belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, claims *session.Claims) (*models.User, error) {
	if claims == nil {
		return nil, ErrSessionUser
	}
	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionUser
	}
	return user, nil
}

// SetPassword replaces the password of the account registered under email.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.SetPasswordHash(ctx, validation.NormalizeEmail(email), string(hash))
}

// VerifyEmail marks the account registered under email as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, email string) error {
	return s.userRepo.VerifyEmail(ctx, validation.NormalizeEmail(email))
}

// IsInvalidCredentials reports whether err is the generic login rejection.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
