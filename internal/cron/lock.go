package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/pkg/instance"
	pkgredis "github.com/angelmondragon/collette-backend/pkg/redis"
)

const (
	defaultLockTTL = time.Hour
	lockScope      = "scheduler-lock"
)

// Lock guarantees a single scheduler instance runs a cycle at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LeaseStore can release a key only while it still holds the caller's value.
type LeaseStore interface {
	pkgredis.KeyStore
	DelIfEquals(ctx context.Context, key, value string) (bool, error)
}

// RedisLock is a SETNX lease owned by "<instance>:<token>".
type RedisLock struct {
	store LeaseStore
	key   string
	ttl   time.Duration
	owner string
}

// NewRedisLock builds a lease named after the deployment environment.
func NewRedisLock(store LeaseStore, env string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	if env == "" {
		env = "local"
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: store.Key(lockScope, env), ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := instance.GetID() + ":" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release deletes the lease only while this instance still owns it; an
// expired lease taken over by another instance is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.store.DelIfEquals(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release scheduler lock: %w", err)
	}
	return nil
}
