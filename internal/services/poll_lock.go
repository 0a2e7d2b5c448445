package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PollLock is a redis lease guarding a poll cycle. It prevents two runner
// instances from triggering the same due schedules concurrently; the engine
// itself assumes that guarantee is provided at this boundary.
type PollLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewPollLock(client *redis.Client, key string, ttl time.Duration) *PollLock {
	return &PollLock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lease for one poll cycle. It returns false when another
// holder owns it.
func (l *PollLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the lease early so the next cycle does not wait out the TTL.
func (l *PollLock) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
