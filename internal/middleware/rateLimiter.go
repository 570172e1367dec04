package middleware

import (
	"sync"

	"github.com/kbchat/kbchat/internal/config"
	"golang.org/x/time/rate"
)

// one token bucket per caller IP; answer generation is expensive enough
// that a single noisy client could starve the model quota for everyone
var limiterInstance = newIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type ipRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newIPRateLimiter(limit rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// limiterFor hands back the bucket for an IP, creating it on first sight.
// Buckets are never evicted; a restart clears them.
func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = bucket
	}
	return bucket
}
