package jwt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/TianUrien/playr-chat/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Token status constants
const (
	TokenStatusNormal  = 1 // Token is valid
	TokenStatusKicked  = 2 // Token was kicked by new login
	TokenStatusExpired = 3 // Token expired
	TokenStatusLogout  = 4 // Token was logged out
)

// TokenStore manages token storage in Redis
type TokenStore struct {
	rdb          *redis.Client
	accessExpire time.Duration
}

// NewTokenStore creates a new TokenStore
func NewTokenStore(rdb *redis.Client, expireHours int) *TokenStore {
	return &TokenStore{
		rdb:          rdb,
		accessExpire: time.Duration(expireHours) * time.Hour,
	}
}

// tokenKey generates Redis key for user's tokens on a platform
// Format: {prefix}token:{userId}:{platformId}
func (s *TokenStore) tokenKey(userId string, platformId int) string {
	return fmt.Sprintf(constant.RedisKeyToken(), userId, platformId)
}

// StoreToken stores a token in Redis with status
func (s *TokenStore) StoreToken(ctx context.Context, userId string, platformId int, token string) error {
	key := s.tokenKey(userId, platformId)

	// Hash keyed by token so a user can hold multiple tokens per platform
	if err := s.rdb.HSet(ctx, key, token, TokenStatusNormal).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if err := s.rdb.Expire(ctx, key, s.accessExpire).Err(); err != nil {
		return fmt.Errorf("failed to set token expiration: %w", err)
	}

	return nil
}

// ValidateTokenStatus checks if a token exists and is valid in Redis
// Returns: status (0 if not found), error
func (s *TokenStore) ValidateTokenStatus(ctx context.Context, userId string, platformId int, token string) (int, error) {
	key := s.tokenKey(userId, platformId)

	statusStr, err := s.rdb.HGet(ctx, key, token).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get token status: %w", err)
	}

	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return 0, fmt.Errorf("invalid token status value: %w", err)
	}

	return status, nil
}

// RevokeTokens marks all of a user's tokens on a platform as logged out.
func (s *TokenStore) RevokeTokens(ctx context.Context, userId string, platformId int) error {
	key := s.tokenKey(userId, platformId)

	tokens, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	for _, token := range tokens {
		if err := s.rdb.HSet(ctx, key, token, TokenStatusLogout).Err(); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}

	return nil
}
