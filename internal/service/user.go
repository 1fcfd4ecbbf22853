package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/Planto/internal/auth"
	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/internal/session"
	apperrors "github.com/utafrali/Planto/pkg/errors"
	"github.com/utafrali/Planto/pkg/validator"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// RegisterInput holds the parameters for registering a new user. bcrypt
// ignores bytes past 72, so longer passwords are rejected.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *domain.User `json:"user"`
}

// UserService implements registration, login and the signed-in user's
// session lifecycle.
type UserService struct {
	users    repository.UserRepository
	tokens   *auth.JWTManager
	sessions *session.Registry
	events   EventPublisher
	logger   *slog.Logger
	cost     int
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.JWTManager,
	sessions *session.Registry,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		events:   events,
		logger:   logger,
		cost:     bcryptCost,
	}
}

// Register creates a customer account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login authenticates a user, issues an access token and opens the user's
// storefront session.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.sessions.Open(user.ID)

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)
	return &AuthResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.Expiry().Seconds()),
		User:      user,
	}, nil
}

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return s.users.GetByID(ctx, userID)
}

// Logout closes the user's session, discarding its cart and favorites. The
// token stays valid until it expires; a later request opens a fresh session.
func (s *UserService) Logout(ctx context.Context, userID string) bool {
	closed := s.sessions.Close(userID)
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
		slog.Bool("session_closed", closed),
	)
	return closed
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
