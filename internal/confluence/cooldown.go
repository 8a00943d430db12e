package confluence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore maps a symbol_type pair to the time of its last signal
// check. MarkChecked is the single place cooldown state advances, so the
// reset-on-check policy can be changed without touching the factor logic.
type CooldownStore interface {
	Last(ctx context.Context, key string) (time.Time, bool, error)
	MarkChecked(ctx context.Context, key string, t time.Time) error
}

// MemoryCooldownStore lives for the process lifetime. Safe for concurrent
// per-asset scans; a single mutex suffices for a handful of assets.
type MemoryCooldownStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{last: make(map[string]time.Time)}
}

func (s *MemoryCooldownStore) Last(ctx context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[key]
	return t, ok, nil
}

func (s *MemoryCooldownStore) MarkChecked(ctx context.Context, key string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key] = t
	return nil
}

const (
	redisCooldownPrefix = "cooldown:"
	redisCooldownTTL    = 7 * 24 * time.Hour
)

// RedisCooldownStore checkpoints cooldown state across restarts.
type RedisCooldownStore struct {
	client *redis.Client
}

func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

func (s *RedisCooldownStore) Last(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, redisCooldownPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (s *RedisCooldownStore) MarkChecked(ctx context.Context, key string, t time.Time) error {
	return s.client.Set(ctx, redisCooldownPrefix+key, t.UTC().Format(time.RFC3339Nano), redisCooldownTTL).Err()
}
