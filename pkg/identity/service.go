package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/verident/registry/pkg/common/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	minCredentialLen = 8
	maxCredentialLen = 30
)

var (
	ErrInvalidCredentialFormat = errors.New("invalid credential format")
	ErrInvalidCredentials      = errors.New("invalid credentials")
)

// Accounts is the persistence contract behind the authenticator; the
// gorm-backed Repository satisfies it.
type Accounts interface {
	CreateUser(ctx context.Context, input CreateUserInput) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetPasswordHash(ctx context.Context, username string) (string, error)
}

type Service struct {
	repo Accounts
}

func NewService(repo Accounts) *Service {
	return &Service{repo: repo}
}

func (s *Service) SignUp(ctx context.Context, username, password string) (models.User, error) {
	if err := validateCredential("username", username); err != nil {
		return models.User{}, err
	}
	if err := validateCredential("password", password); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	return s.repo.CreateUser(ctx, CreateUserInput{
		Username:     username,
		PasswordHash: string(hash),
	})
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if err := validateCredential("username", username); err != nil {
		return models.User{}, err
	}
	if err := validateCredential("password", password); err != nil {
		return models.User{}, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	hash, err := s.repo.GetPasswordHash(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func validateCredential(field, value string) error {
	if len(value) < minCredentialLen || len(value) > maxCredentialLen {
		return fmt.Errorf("%w: %s must be between %d and %d characters",
			ErrInvalidCredentialFormat, field, minCredentialLen, maxCredentialLen)
	}
	return nil
}
