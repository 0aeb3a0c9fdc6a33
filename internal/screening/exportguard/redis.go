package exportguard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"exclusioncheck/pkg/platform/sentinel"
)

const keyPrefix = "export:inflight:"

// releaseScript deletes the key only if it still holds the caller's value,
// so a holder whose lease expired cannot free someone else's slot.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Guard shared by every server instance. Only the session key and
// the export kind are stored.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOption configures a Redis guard.
type RedisOption func(*Redis)

// WithRedisTTL sets how long an unreleased lease lasts.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	r := &Redis{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Redis) Acquire(ctx context.Context, key string, kind Kind) (*Lease, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("cannot acquire export guard for %q", kind)
	}
	token := newToken()
	for attempt := 0; ; attempt++ {
		// SET NX PX
		ok, err := r.client.SetNX(ctx, keyPrefix+key, encode(kind, token), r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: acquire export guard: %w", sentinel.ErrUnavailable, err)
		}
		if ok {
			return &Lease{Key: key, Kind: kind, token: token}, nil
		}
		current, err := r.Status(ctx, key)
		if err != nil {
			return nil, err
		}
		// the holder may expire between SETNX and GET; retry once
		if current != KindIdle || attempt > 0 {
			return nil, conflict(key, current)
		}
	}
}

func (r *Redis) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	err := releaseScript.Run(ctx, r.client, []string{keyPrefix + lease.Key}, encode(lease.Kind, lease.token)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: release export guard: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Status(ctx context.Context, key string) (Kind, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return KindIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read export guard: %w", sentinel.ErrUnavailable, err)
	}
	kind, _, _ := strings.Cut(val, ":")
	if k := Kind(kind); k.IsValid() {
		return k, nil
	}
	return KindIdle, nil
}

func encode(kind Kind, token string) string {
	return string(kind) + ":" + token
}
