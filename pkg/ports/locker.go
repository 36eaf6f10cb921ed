package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across replicas of the
// control plane. A single agent process driving one call does not need
// it; it matters when several processes share a record store.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key
	// (e.g. a session ID). It blocks until the lock is acquired or the
	// context is canceled. The returned UnlockFunc MUST be called to
	// release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
