package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter throttles scan processing per client: a fixed number of scans
// per minute plus a daily upload byte quota. A zero limit disables the
// corresponding check.
type RateLimiter struct {
	mu sync.Mutex

	scansPerMinute int
	maxBytesPerDay int64

	clients map[string]*clientUsage
	now     func() time.Time
}

// clientUsage tracks one client's consumption within the current windows.
type clientUsage struct {
	minuteStart time.Time
	scansMinute int

	dayStart   time.Time
	bytesToday int64
}

// NewRateLimiter creates a rate limiter with the given per-client limits.
func NewRateLimiter(scansPerMinute int, maxBytesPerDay int64) *RateLimiter {
	return &RateLimiter{
		scansPerMinute: scansPerMinute,
		maxBytesPerDay: maxBytesPerDay,
		clients:        make(map[string]*clientUsage),
		now:            time.Now,
	}
}

// Allow reports whether the client may run a scan with an upload of the given
// size, and on success records the consumption. The returned error is a
// *RateLimitError or *QuotaError describing the exceeded limit.
func (rl *RateLimiter) Allow(client string, uploadBytes int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage, ok := rl.clients[client]
	if !ok {
		usage = &clientUsage{minuteStart: now, dayStart: now}
		rl.clients[client] = usage
	}

	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.minuteStart = now
		usage.scansMinute = 0
	}
	if now.Sub(usage.dayStart) >= 24*time.Hour {
		usage.dayStart = now
		usage.bytesToday = 0
	}

	if rl.scansPerMinute > 0 && usage.scansMinute >= rl.scansPerMinute {
		return &RateLimitError{
			Limit:      rl.scansPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.minuteStart),
		}
	}
	if rl.maxBytesPerDay > 0 && usage.bytesToday+uploadBytes > rl.maxBytesPerDay {
		return &QuotaError{
			Used:   usage.bytesToday,
			Limit:  rl.maxBytesPerDay,
			Resets: usage.dayStart.Add(24 * time.Hour),
		}
	}

	usage.scansMinute++
	usage.bytesToday += uploadBytes
	return nil
}

// RateLimitError reports an exceeded per-minute scan limit.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("scan rate limit exceeded (limit: %d/min, retry after: %v)", e.Limit, e.RetryAfter.Round(time.Second))
}

// QuotaError reports an exceeded daily upload quota.
type QuotaError struct {
	Used   int64
	Limit  int64
	Resets time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily upload quota exceeded (used: %d of %d bytes, resets: %s)",
		e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
