package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/soltip/soltip/exception"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MaxRequests     int           // Maximum number of requests allowed
	WindowSize      time.Duration // Time window for rate limiting
	CleanupInterval time.Duration // How often to clean up expired entries
}

// DefaultConfig returns a default configuration
func DefaultConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		MaxRequests:     10,              // 10 requests
		WindowSize:      time.Minute,     // per minute
		CleanupInterval: 5 * time.Minute, // cleanup every 5 minutes
	}
}

// RateLimiter implements sliding window rate limiting
type RateLimiter struct {
	config      *RateLimiterConfig
	requests    map[string][]time.Time // key -> request timestamps
	mu          sync.Mutex
	now         func() time.Time
	stopOnce    sync.Once
	stopCleanup chan struct{}
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		config:      config,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	exception.SafeGo("RateLimiterCleanup", rl.cleanupExpiredEntries)

	return rl
}

// Allow checks if a request from the given key is allowed and records it
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	cutoff := now.Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := prune(rl.requests[key], cutoff)
	if len(valid) >= rl.config.MaxRequests {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// RetryAfter is how long until key frees a slot; zero when it has one
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	now := rl.now()
	cutoff := now.Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	valid := prune(rl.requests[key], cutoff)
	if len(valid) < rl.config.MaxRequests {
		return 0
	}
	return valid[0].Sub(cutoff)
}

// Reset removes all entries for a given key
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, key)
}

// prune drops timestamps at or before cutoff; entries are in arrival order
func prune(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	return requests[i:]
}

// cleanupExpiredEntries periodically removes expired entries to prevent memory leaks
func (rl *RateLimiter) cleanupExpiredEntries() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
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
	cutoff := rl.now().Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, requests := range rl.requests {
		valid := prune(requests, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// TipRateLimiter limits tip submissions both per client IP and per tipper wallet
type TipRateLimiter struct {
	ipLimiter     *RateLimiter
	walletLimiter *RateLimiter
}

func NewTipRateLimiter(config *RateLimiterConfig) *TipRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	walletConfig := *config
	return &TipRateLimiter{
		ipLimiter:     NewRateLimiter(config),
		walletLimiter: NewRateLimiter(&walletConfig),
	}
}

// AllowIP checks a request that is not tied to a wallet
func (t *TipRateLimiter) AllowIP(ip string) error {
	if !t.ipLimiter.Allow(ip) {
		return NewRateLimitError("ip", ip, t.ipLimiter.RetryAfter(ip))
	}
	return nil
}

// AllowTip checks the IP and, when a wallet is connected, the tipper
func (t *TipRateLimiter) AllowTip(ip, wallet string) error {
	if err := t.AllowIP(ip); err != nil {
		return err
	}
	if wallet == "" {
		return nil
	}
	if !t.walletLimiter.Allow(wallet) {
		return NewRateLimitError("wallet", wallet, t.walletLimiter.RetryAfter(wallet))
	}
	return nil
}

func (t *TipRateLimiter) Stop() {
	t.ipLimiter.Stop()
	t.walletLimiter.Stop()
}

// RateLimitError represents a rate limit error
type RateLimitError struct {
	Type       string
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s '%s': retry in %s", e.Type, e.Key, e.RetryAfter.Round(time.Second))
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(rateType, key string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		Type:       rateType,
		Key:        key,
		RetryAfter: retryAfter,
	}
}
