package toolhost

import (
	"sync"
	"time"
)

// RateLimiter implements per-client rate limiting with a sliding window
type RateLimiter struct {
	limits            map[string]*RateLimitState
	maxRequestsPerMin int
	mu                sync.Mutex
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limits:            make(map[string]*RateLimitState),
		maxRequestsPerMin: maxRequestsPerMinute,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
	}

	go rl.startCleanup()

	return rl
}

// CheckLimit records a request from client and reports whether it is allowed
func (rl *RateLimiter) CheckLimit(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()

	state, exists := rl.limits[client]
	if !exists {
		state = &RateLimitState{}
		rl.limits[client] = state
	}
	state.Requests = recent(state.Requests, now)

	if len(state.Requests) >= rl.maxRequestsPerMin {
		return false
	}

	state.Requests = append(state.Requests, now)
	return true
}

// GetRetryAfter returns the number of seconds until the client may retry
func (rl *RateLimiter) GetRetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.limits[client]
	if !exists || len(state.Requests) == 0 {
		return 0
	}

	retryAfterMs := 60000 - (time.Now().UnixMilli() - state.Requests[0])
	if retryAfterMs < 0 {
		return 0
	}

	// round up
	return int((retryAfterMs + 999) / 1000)
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()
	for client, state := range rl.limits {
		state.Requests = recent(state.Requests, now)
		if len(state.Requests) == 0 {
			delete(rl.limits, client)
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// recent keeps timestamps from the last minute.
func recent(requests []int64, now int64) []int64 {
	valid := requests[:0]
	for _, t := range requests {
		if now-t < 60000 {
			valid = append(valid, t)
		}
	}
	return valid
}
