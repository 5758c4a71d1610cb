package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLimiterPrefix = "login_attempts"

// LoginLimiter is a sliding-window attempt counter backed by one Redis sorted
// set per identifier. Scores are attempt times in nanoseconds.
type LoginLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
	seq    atomic.Uint64
}

// NewLoginLimiter wraps client. An empty prefix falls back to "login_attempts".
func NewLoginLimiter(client *redis.Client, prefix string) *LoginLimiter {
	if prefix == "" {
		prefix = defaultLimiterPrefix
	}
	return &LoginLimiter{client: client, prefix: prefix, now: time.Now}
}

// Allow records an attempt for identifier unless limit attempts already
// happened inside window. Refused attempts are not recorded.
func (l *LoginLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, time.Duration, error) {
	if window <= 0 {
		return false, 0, errors.New("window must be positive")
	}
	if limit <= 0 {
		return true, 0, nil
	}

	key := l.key(identifier)
	now := l.now()
	floor := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", "("+floor)
		count = p.ZCount(ctx, key, floor, "+inf")
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis trim window: %w", err)
	}

	if int(count.Val()) >= limit {
		retryAfter, err := l.retryAfter(ctx, key, window, now)
		if err != nil {
			return false, 0, err
		}
		return false, retryAfter, nil
	}

	member := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d:%d", now.UnixNano(), l.seq.Add(1)),
	}
	_, err = l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, member)
		p.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis record attempt: %w", err)
	}
	return true, 0, nil
}

// retryAfter is the time until the oldest attempt in the window expires.
func (l *LoginLimiter) retryAfter(ctx context.Context, key string, window time.Duration, now time.Time) (time.Duration, error) {
	oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("redis oldest attempt: %w", err)
	}
	if len(oldest) == 0 {
		return window, nil
	}
	expires := time.Unix(0, int64(oldest[0].Score)).Add(window)
	if wait := expires.Sub(now); wait > 0 {
		return wait, nil
	}
	return time.Second, nil
}

func (l *LoginLimiter) key(identifier string) string {
	return fmt.Sprintf("%s:%s", l.prefix, identifier)
}
