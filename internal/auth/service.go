package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/user"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals which one was wrong
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository is the slice of the credential store the service needs
type UserRepository interface {
	Create(ctx context.Context, email, name, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service handles authentication business logic. Request shape validation
// happens at the handler boundary; the service assumes well-formed input.
type Service struct {
	userRepo UserRepository
	logger   *logging.Logger
}

func NewService(userRepo UserRepository, logger *logging.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register hashes the password and creates the user record. A racing
// registration on the same email loses with user.ErrDuplicateEmail, enforced
// by the store's uniqueness constraint.
func (s *Service) Register(ctx context.Context, email, name, password string) (*user.User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, name, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies the credentials and returns the user. Unknown email and
// failed verification are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return existingUser, nil
}
