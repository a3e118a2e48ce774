package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/pkg/metrics"
)

const defaultSessionTTL = time.Hour

// SessionCache stores session snapshots in Redis.
// Key format: session:<username>
type SessionCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	timeout time.Duration
}

// NewSessionCache wraps client. Entries expire after ttl; each call is
// bounded by timeout.
func NewSessionCache(client redis.Cmdable, ttl, timeout time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SessionCache{client: client, ttl: ttl, timeout: timeout}
}

// Put writes the snapshot, replacing any previous one for username.
func (c *SessionCache) Put(ctx context.Context, username string, snap *domain.SessionSnapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		metrics.SessionCacheOpsTotal.WithLabelValues("put", "error").Inc()
		return domain.CacheUnavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.key(username), payload, c.ttl).Err(); err != nil {
		metrics.SessionCacheOpsTotal.WithLabelValues("put", "error").Inc()
		return domain.CacheUnavailable(fmt.Errorf("session put: %w", err))
	}
	metrics.SessionCacheOpsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

// Refresh replaces an existing snapshot with SET XX KEEPTTL. A missing key is
// left missing: only login creates sessions.
func (c *SessionCache) Refresh(ctx context.Context, username string, snap *domain.SessionSnapshot) (bool, error) {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		metrics.SessionCacheOpsTotal.WithLabelValues("refresh", "error").Inc()
		return false, domain.CacheUnavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err = c.client.SetArgs(ctx, c.key(username), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.SessionCacheOpsTotal.WithLabelValues("refresh", "miss").Inc()
		return false, nil
	case err != nil:
		metrics.SessionCacheOpsTotal.WithLabelValues("refresh", "error").Inc()
		return false, domain.CacheUnavailable(fmt.Errorf("session refresh: %w", err))
	}
	metrics.SessionCacheOpsTotal.WithLabelValues("refresh", "ok").Inc()
	return true, nil
}

// Get returns the cached snapshot, or (nil, nil) if there is none.
func (c *SessionCache) Get(ctx context.Context, username string) (*domain.SessionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := c.client.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.SessionCacheOpsTotal.WithLabelValues("get", "miss").Inc()
			return nil, nil
		}
		metrics.SessionCacheOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, domain.CacheUnavailable(fmt.Errorf("session get: %w", err))
	}

	var snap domain.SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		metrics.SessionCacheOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, domain.CacheUnavailable(fmt.Errorf("decode session: %w", err))
	}
	metrics.SessionCacheOpsTotal.WithLabelValues("get", "ok").Inc()
	return &snap, nil
}

// Delete removes the session for username. Deleting a missing key succeeds.
func (c *SessionCache) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Del(ctx, c.key(username)).Err(); err != nil {
		metrics.SessionCacheOpsTotal.WithLabelValues("delete", "error").Inc()
		return domain.CacheUnavailable(fmt.Errorf("session delete: %w", err))
	}
	metrics.SessionCacheOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *SessionCache) key(username string) string {
	return "session:" + username
}

// encodeSnapshot serialises snap with the password forced to the
// placeholder. HTML escaping is off so the stored value carries the literal
// "<PROTECTED>".
func encodeSnapshot(snap *domain.SessionSnapshot) ([]byte, error) {
	stored := *snap
	stored.Password = domain.PasswordPlaceholder

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(stored); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
