package model

import "time"

// AccessTokenData is the cached per-user auction service access token.
type AccessTokenData struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
