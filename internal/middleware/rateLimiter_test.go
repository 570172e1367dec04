package middleware

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestIPRateLimiter_PerIPBuckets(t *testing.T) {
	limiter := newIPRateLimiter(rate.Limit(1), 1)

	if !limiter.limiterFor("10.0.0.1").Allow() {
		t.Fatal("First request from an IP must pass")
	}
	if limiter.limiterFor("10.0.0.1").Allow() {
		t.Error("Burst of 1 exhausted, second request must be throttled")
	}
	// a different caller has its own budget
	if !limiter.limiterFor("10.0.0.2").Allow() {
		t.Error("Throttling one IP must not affect another")
	}
}

func TestIPRateLimiter_SameIPSharesBucket(t *testing.T) {
	limiter := newIPRateLimiter(rate.Limit(1), 5)
	if limiter.limiterFor("10.0.0.3") != limiter.limiterFor("10.0.0.3") {
		t.Error("Repeated lookups for one IP must return the same bucket")
	}
}
