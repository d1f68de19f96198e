package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultTTL keeps a trigger identifier long enough to cover its calendar day in any timezone.
const DefaultTTL = 48 * time.Hour

const keyPrefix = "meatdesk:alert:"

// DedupStore remembers which alerts were already delivered, keyed by trigger identifier.
type DedupStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewClient opens a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewDedupStore wraps a Redis client. A non-positive ttl selects DefaultTTL.
func NewDedupStore(client goredis.Cmdable, ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DedupStore{client: client, ttl: ttl}
}

// Claim records the trigger identifier and reports whether this caller is the first to deliver it.
func (s *DedupStore) Claim(ctx context.Context, triggerID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+triggerID, "sent", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", triggerID, err)
	}
	return ok, nil
}

// Release forgets a claimed identifier so a failed delivery can be retried.
func (s *DedupStore) Release(ctx context.Context, triggerID string) error {
	if err := s.client.Del(ctx, keyPrefix+triggerID).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", triggerID, err)
	}
	return nil
}
