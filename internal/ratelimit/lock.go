package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockUnavailable = errors.New("serial_lock_unavailable")
	ErrLockKeyEmpty    = errors.New("serial_lock_key_empty")
	ErrLockTTL         = errors.New("serial_lock_ttl_invalid")
)

// Deletes the key only while it still holds the caller's owner token.
const serialUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// SerialLock holds short-lived ownership of one (plan, feature, serial)
// key while its measurement is being written.
type SerialLock struct {
	client *redis.Client
	unlock *redis.Script
}

func NewSerialLock(client *redis.Client) *SerialLock {
	if client == nil {
		return nil
	}
	return &SerialLock{
		client: client,
		unlock: redis.NewScript(serialUnlockScript),
	}
}

// Acquire returns an owner token when the key was free.
func (l *SerialLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	switch {
	case l == nil || l.client == nil:
		return "", false, ErrLockUnavailable
	case key == "":
		return "", false, ErrLockKeyEmpty
	case ttl <= 0:
		return "", false, ErrLockTTL
	}

	owner := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !acquired {
		return "", false, nil
	}
	return owner, true, nil
}

// Release is a no-op for an empty owner, which is what Acquire hands back
// when nothing was locked.
func (l *SerialLock) Release(ctx context.Context, key, owner string) error {
	if l == nil || l.client == nil || key == "" || owner == "" {
		return nil
	}
	return l.unlock.Run(ctx, l.client, []string{key}, owner).Err()
}
