package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrBelowScript increments KEYS[1] unless it already reached ARGV[1]
// (negative means no limit). The expiry ARGV[2] (unix ms) is set on creation.
// Returns {count, pttl, allowed}.
var incrBelowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if limit >= 0 and current >= limit then
  return {current, redis.call('PTTL', KEYS[1]), 0}
end
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIREAT', KEYS[1], ARGV[2])
end
return {n, redis.call('PTTL', KEYS[1]), 1}
`)

// Redis is a Counter shared by every instance pointing at the same server.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis wraps a connected client. prefix is prepended to every key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (Entry, error) {
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, r.key(key))
	ttlCmd := pipe.PTTL(ctx, r.key(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, fmt.Errorf("quota: get %s: %w", key, err)
	}
	n, err := getCmd.Int64()
	if errors.Is(err, redis.Nil) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("quota: parse %s: %w", key, err)
	}
	return Entry{Count: n, ExpiresAt: r.expiry(ttlCmd.Val())}, nil
}

func (r *Redis) Incr(ctx context.Context, key string, expireAt time.Time) (Entry, error) {
	e, _, err := r.IncrBelow(ctx, key, NoLimit, expireAt)
	return e, err
}

func (r *Redis) IncrBelow(ctx context.Context, key string, limit int64, expireAt time.Time) (Entry, bool, error) {
	res, err := incrBelowScript.Run(ctx, r.client, []string{r.key(key)}, limit, expireAt.UnixMilli()).Int64Slice()
	if err != nil {
		return Entry{}, false, fmt.Errorf("quota: incr %s: %w", key, err)
	}
	if len(res) != 3 {
		return Entry{}, false, fmt.Errorf("quota: incr %s: unexpected reply %v", key, res)
	}
	e := Entry{Count: res[0]}
	if e.Count > 0 {
		e.ExpiresAt = r.expiry(time.Duration(res[1]) * time.Millisecond)
	}
	return e, res[2] == 1, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("quota: delete %s: %w", key, err)
	}
	return nil
}

// expiry converts a PTTL reply into an absolute time. Keys without a TTL
// report a zero time.
func (r *Redis) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return r.now().Add(ttl)
}

var _ Counter = (*Redis)(nil)
