package lock

import (
	"context"
	"time"
)

// Locker hands out exclusive, expiring keys shared by every API instance.
type Locker interface {
	// Acquire sets key for ttl unless it is already held. ok is false when someone else holds it.
	// The returned token must be passed to Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release deletes key only if it still carries token.
	Release(ctx context.Context, key, token string) error
}
