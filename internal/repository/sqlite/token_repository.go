package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"user-api/internal/domain"
	"user-api/internal/repository"
)

const createTokensTable = `
CREATE TABLE IF NOT EXISTS tokens (
	token TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL
);
`

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) repository.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTokensTable); err != nil {
		return fmt.Errorf("create tokens table: %w", err)
	}
	return nil
}

func (r *TokenRepository) GetOrCreate(ctx context.Context, userID int64, candidate string) (*domain.Token, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tokens (token, user_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO NOTHING`,
		candidate,
		userID,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("token key: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert token: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, created_at
FROM tokens
WHERE user_id = ?`,
		userID,
	)
	return scanToken(row)
}

func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, created_at
FROM tokens
WHERE token = ?`,
		key,
	)
	return scanToken(row)
}

func scanToken(row *sql.Row) (*domain.Token, error) {
	var token domain.Token
	if err := row.Scan(&token.Key, &token.UserID, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &token, nil
}
