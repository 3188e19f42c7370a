package domain

import "time"

// Token is an opaque API key bound to a single user.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}
