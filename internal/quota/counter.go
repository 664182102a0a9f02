// Package quota provides expiring counters used for daily usage and
// per-IP rate limiting.
package quota

import (
	"context"
	"time"
)

// NoLimit disables the comparison in IncrBelow.
const NoLimit int64 = -1

// Entry is the state of a counter key. A zero Entry means the key is absent.
type Entry struct {
	Count     int64
	ExpiresAt time.Time
}

// Counter is an expiring integer store. Expired keys behave as absent.
type Counter interface {
	Get(ctx context.Context, key string) (Entry, error)
	// Incr adds one. expireAt is applied only when the key is created.
	Incr(ctx context.Context, key string, expireAt time.Time) (Entry, error)
	// IncrBelow adds one only when the current count is below limit and
	// reports whether it did. The check and increment are atomic.
	IncrBelow(ctx context.Context, key string, limit int64, expireAt time.Time) (Entry, bool, error)
	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}
