package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"user-api/internal/domain"
	"user-api/internal/repository"
	"user-api/internal/service"
)

const keyBytes = 20

// StoredIssuer hands out one persistent opaque key per user.
type StoredIssuer struct {
	tokens repository.TokenRepository
}

func NewStoredIssuer(tokens repository.TokenRepository) *StoredIssuer {
	return &StoredIssuer{tokens: tokens}
}

// IssueToken returns the user's existing key, creating it on first use.
func (i *StoredIssuer) IssueToken(ctx context.Context, user *domain.User) (string, error) {
	if user == nil {
		return "", errors.New("issue token: user is required")
	}

	candidate, err := generateKey()
	if err != nil {
		return "", err
	}

	tok, err := i.tokens.GetOrCreate(ctx, user.ID, candidate)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok.Key, nil
}

func (i *StoredIssuer) ResolveToken(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, service.ErrInvalidToken
	}

	tok, err := i.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, service.ErrInvalidToken
		}
		return 0, fmt.Errorf("resolve token: %w", err)
	}
	return tok.UserID, nil
}

func generateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
