package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"arpg-auction-gateway/internal/auction"
	"arpg-auction-gateway/internal/cache"
	"arpg-auction-gateway/internal/model"
)

const (
	// TokenTTL is the default cached token lifetime.
	TokenTTL = 1 * time.Hour

	// TokenCacheKeyPrefix namespaces token cache keys by user id.
	TokenCacheKeyPrefix = "token:"
)

// AccessTokenService exchanges user ids for auction service access tokens
// and caches them so one session's repeated requests do not hit the service.
type AccessTokenService struct {
	auctions auction.Client
	cache    cache.Cache
	ttl      time.Duration
}

// NewAccessTokenService creates a new access token service.
func NewAccessTokenService(auctions auction.Client, tokenCache cache.Cache, ttl time.Duration) *AccessTokenService {
	if ttl == 0 {
		ttl = TokenTTL
	}
	return &AccessTokenService{
		auctions: auctions,
		cache:    tokenCache,
		ttl:      ttl,
	}
}

// GetAccessToken returns the cached token for the user or requests a fresh
// one from the auction service.
func (s *AccessTokenService) GetAccessToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("empty user id")
	}

	key := TokenCacheKeyPrefix + userID
	data, err := s.cache.GetOrSet(ctx, key, s.ttl, func() ([]byte, error) {
		token, err := s.auctions.GetAccessToken(ctx, userID)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		entry := model.AccessTokenData{
			UserID:    userID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		log.Printf("[AccessTokenService] Issued token for user_id=%s, expires=%v", userID, entry.ExpiresAt)
		return json.Marshal(entry)
	})
	if err != nil {
		return "", err
	}

	var entry model.AccessTokenData
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", fmt.Errorf("failed to parse cached token: %w", err)
	}

	if time.Now().After(entry.ExpiresAt) {
		// Cached copy outlived its own expiry (memory cache restart skew);
		// drop it and exchange again.
		_ = s.cache.Delete(ctx, key)
		token, err := s.auctions.GetAccessToken(ctx, userID)
		if err != nil {
			return "", err
		}
		return token, nil
	}

	return entry.Token, nil
}

// Revoke drops the cached token for a user.
func (s *AccessTokenService) Revoke(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, TokenCacheKeyPrefix+userID)
}
