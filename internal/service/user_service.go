package service

import (
	"context"
	"strings"

	"user-api/internal/domain"
)

// NewUser is the registration payload.
type NewUser struct {
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"required,max=255"`
}

// Credentials is the login payload. Password is used verbatim.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenIssuer mints API tokens for verified users and maps them back to
// user ids.
type TokenIssuer interface {
	IssueToken(ctx context.Context, user *domain.User) (string, error)
	// ResolveToken returns the owning user id or an error wrapping
	// ErrInvalidToken.
	ResolveToken(ctx context.Context, token string) (int64, error)
}

// UserService describes user provisioning and credential checks.
type UserService interface {
	Create(ctx context.Context, input NewUser) (*domain.User, error)
	Authenticate(ctx context.Context, creds Credentials) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	store UserStore
}

func NewUserService(store UserStore) UserService {
	return &userService{store: store}
}

func (s *userService) Create(ctx context.Context, input NewUser) (*domain.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	return s.store.CreateUser(ctx, input.Email, input.Password, input.Name)
}

func (s *userService) Authenticate(ctx context.Context, creds Credentials) (*domain.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	user, err := s.store.VerifyCredentials(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newAuthenticationError()
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}
