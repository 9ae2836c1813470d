package gate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter and sets its expiry on the
// first hit. Returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter shared across instances.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisLimiter creates a limiter over client. Keys are prefixed with prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "copydesk:ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, now: time.Now}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := l.now()
	start := windowStart(now, window)
	// The hash tag keeps every window of one key on the same cluster slot.
	redisKey := fmt.Sprintf("%s:{%s}:%d", l.prefix, key, start.Unix())

	val, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	res, ok := val.([]interface{})
	if !ok || len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit result: %v", val)
	}
	count, err := toInt64(res[0])
	if err != nil {
		return Decision{}, err
	}

	d := decide(count, limit, now, start, window)
	if !d.Allowed {
		if ttl, err := toInt64(res[1]); err == nil && ttl > 0 {
			d.RetryAfter = time.Duration(ttl) * time.Millisecond
		}
	}
	return d, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected counter type %T", v)
	}
}
