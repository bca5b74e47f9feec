package qsim

import (
	"sync"
	"time"
)

/*
RateLimiter implements the Regulator interface using a token bucket. The
remote backend consumes one token per job submission, keeping the request
rate to the simulation service sustainable while allowing short bursts when
the bucket is full.
*/
type RateLimiter struct {
	tokens     int           // Current number of available tokens
	maxTokens  int           // Maximum token capacity
	refillRate time.Duration // Time between token replenishments
	lastRefill time.Time     // Last time tokens were added
	mu         sync.Mutex
	metrics    *Metrics
}

/*
NewRateLimiter creates a new rate limit regulator.

Parameters:
  - maxTokens: Maximum number of tokens (burst capacity)
  - refillRate: Duration between token replenishments

Example:

	limiter := NewRateLimiter(100, time.Second) // 100 submissions/second burstable
*/
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now.Add(-refillRate), // Start with a full refill period elapsed
	}
}

// Observe implements the Regulator interface by monitoring pool metrics.
func (rl *RateLimiter) Observe(metrics *Metrics) {
	rl.metrics = metrics
}

/*
Limit implements the Regulator interface. It consumes a token if one is
available, allowing the submission to proceed; with an empty bucket the
submission is limited.
*/
func (rl *RateLimiter) Limit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return false
	}
	return true
}

// Renormalize implements the Regulator interface by triggering a token
// refill.
func (rl *RateLimiter) Renormalize() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
}

// refill adds tokens proportional to the time elapsed since the last refill,
// up to the bucket capacity. Caller holds the mutex.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)

	elapsedNs := elapsed.Nanoseconds()
	refillRateNs := rl.refillRate.Nanoseconds()

	// Only round up past the halfway point of a period.
	tokensToAdd := (elapsedNs + (refillRateNs / 2)) / refillRateNs

	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+int(tokensToAdd))
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
}
