package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// Revoker keeps a deny-list of token ids until they would have expired anyway.
// A nil *Revoker, or one without a client, accepts every token and ignores revocations.
type Revoker struct {
	client *redis.Client
}

// NewRevoker connects to the Redis instance at url and verifies it answers PING.
func NewRevoker(ctx context.Context, url string) (*Revoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Revoker{client: client}, nil
}

// NewRevokerWithClient wraps an existing client.
func NewRevokerWithClient(client *redis.Client) *Revoker {
	return &Revoker{client: client}
}

// Enabled reports whether revocations are persisted.
func (r *Revoker) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke denies jti for ttl. Non-positive ttls are ignored because the token has already expired.
func (r *Revoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !r.Enabled() || jti == "" || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (r *Revoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Revoker) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
