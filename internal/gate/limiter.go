package gate

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter counts requests in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// windowStart returns the start of the window containing now.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func decide(count int64, limit int, now, start time.Time, window time.Duration) Decision {
	d := Decision{Allowed: count <= int64(limit), Count: count}
	if !d.Allowed {
		d.RetryAfter = start.Add(window).Sub(now)
	}
	return d
}

// MemoryLimiter is an in-process fixed-window limiter. Counters are
// incremented before they are compared.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*bucket
	now      func() time.Time
	sweepAt  time.Time
}

type bucket struct {
	count   atomic.Int64
	expires time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{counters: make(map[string]*bucket), now: time.Now}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := l.now()
	start := windowStart(now, window)
	b := l.bucket(key+"|"+strconv.FormatInt(start.UnixNano(), 10), start.Add(window), now)
	return decide(b.count.Add(1), limit, now, start, window), nil
}

func (l *MemoryLimiter) bucket(id string, expires, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, b := range l.counters {
			if !now.Before(b.expires) {
				delete(l.counters, k)
			}
		}
		l.sweepAt = now.Add(time.Minute)
	}

	b, ok := l.counters[id]
	if !ok {
		b = &bucket{expires: expires}
		l.counters[id] = b
	}
	return b
}

// Len returns the number of live windows.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
