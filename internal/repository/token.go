package repository

import (
	"context"

	"user-api/internal/domain"
)

// TokenRepository stores one opaque token per user.
type TokenRepository interface {
	Init(ctx context.Context) error
	// GetOrCreate returns the user's existing token, or stores candidate when
	// the user has none yet.
	GetOrCreate(ctx context.Context, userID int64, candidate string) (*domain.Token, error)
	GetByKey(ctx context.Context, key string) (*domain.Token, error)
}
