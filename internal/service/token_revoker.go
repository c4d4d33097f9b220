package service

import (
	"context"
	"sync"
	"time"

	"action_items/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// TokenRevoker remembers logged-out token ids until they would have expired
// anyway. With Redis the list is shared across instances; without it a
// process-local map is used.
type TokenRevoker struct {
	rdb *redis.Client

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

func NewTokenRevoker(rdb *redis.Client) *TokenRevoker {
	return &TokenRevoker{rdb: rdb, local: make(map[string]time.Time), now: time.Now}
}

func revokedKey(jti string) string { return "revoked:" + jti }

// Revoke marks jti as unusable until expiresAt.
func (r *TokenRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if r.rdb != nil {
		return r.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[jti] = expiresAt
	return nil
}

// IsRevoked fails open when Redis errors.
func (r *TokenRevoker) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	if r.rdb != nil {
		n, err := r.rdb.Exists(ctx, revokedKey(jti)).Result()
		if err != nil {
			logger.Warn("token revocation check failed", "error", err)
			return false
		}
		return n > 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.local[jti]
	if !ok {
		return false
	}
	if !exp.After(r.now()) {
		delete(r.local, jti)
		return false
	}
	return true
}
