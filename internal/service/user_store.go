package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"user-api/internal/domain"
	"user-api/internal/repository"
)

// UserStore persists users and owns password hashing and verification.
type UserStore interface {
	// CreateUser stores a new user. Duplicate emails yield *ConstraintError.
	CreateUser(ctx context.Context, email, password, name string) (*domain.User, error)
	// VerifyCredentials returns the matching active user, or nil when the
	// email is unknown or the password does not match.
	VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type passwordStore struct {
	users     repository.UserRepository
	cost      int
	dummyHash []byte
}

// NewUserStore returns a UserStore that hashes passwords with bcrypt at the
// given cost before handing users to the repository.
func NewUserStore(users repository.UserRepository, cost int) (UserStore, error) {
	// compared against when the email is unknown so lookups cost the same
	dummy, err := bcrypt.GenerateFromPassword([]byte("unusable-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &passwordStore{
		users:     users,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

func (s *passwordStore) CreateUser(ctx context.Context, email, password, name string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ValidationError{Fields: FieldErrors{
				"password": {"Ensure this field has no more than 72 bytes."},
			}}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        normalizeEmail(email),
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConstraintError{Field: "email", Message: msgEmailTaken, Err: err}
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *passwordStore) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	if !user.IsActive {
		return nil, nil
	}

	return sanitizeUser(user), nil
}

func (s *passwordStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// normalizeEmail lowercases the domain part and leaves the local part alone.
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
