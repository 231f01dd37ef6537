package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tradedesk/apperr"
)

var (
	// ErrInvalidCredentials signals wrong email or password. Both cases share it.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = apperr.New(apperr.KindValidation, "password must be at least 6 characters")
	// ErrInvalidEmail signals a malformed email address.
	ErrInvalidEmail = apperr.New(apperr.KindValidation, "email is not valid")
	// ErrInvalidRole signals a role outside PRODUCER and BUYER.
	ErrInvalidRole = apperr.New(apperr.KindValidation, "role must be PRODUCER or BUYER")
)

const minPasswordLength = 6

// Config carries the token and hashing settings for the service.
type Config struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Service handles authentication business logic.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	hasher   *passwordHasher
	validate *validator.Validate
	now      func() time.Time
	idGen    func() string
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	User      User
}

// Option configures optional dependencies on Service.
type Option func(*Service)

// WithClock overrides the time source used for created_at and token claims.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides user id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.idGen = gen
		}
	}
}

// NewService creates a new authentication service.
func NewService(repo Repository, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		hasher:   newPasswordHasher(cfg.BcryptCost),
		validate: validator.New(),
		now:      time.Now,
		idGen:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = NewTokenIssuer(TokenConfig{
		Secret: cfg.Secret,
		Issuer: cfg.Issuer,
		TTL:    cfg.TokenTTL,
		Now:    s.now,
	})
	return s
}

// Tokens exposes the issuer so transports can verify tokens without a store hit.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return User{}, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return User{}, ErrWeakPassword
	}
	if !req.Role.Valid() {
		return User{}, ErrInvalidRole
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return User{}, err
	}

	return s.repo.CreateUser(ctx, CreateUserParams{
		ID:           s.idGen(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		CreatedAt:    s.now().UTC(),
	})
}

// Login authenticates a user and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Burn(req.Password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !s.hasher.Matches(user.PasswordHash, req.Password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresIn: s.tokens.TTL(),
		User:      user,
	}, nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// ResolveToken verifies tokenString and loads the user it names. A valid token
// whose subject no longer exists is treated like any other bad token.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (User, error) {
	userID, err := s.tokens.Parse(tokenString)
	if err != nil {
		return User{}, err
	}
	if _, err := uuid.Parse(userID); err != nil {
		return User{}, ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}
