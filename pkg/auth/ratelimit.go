package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier ("free",
// "premium").
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter is a sliding-window rate limiter that tracks request
// counts per subject in memory. Stale windows are pruned as they are
// encountered so the counter map stays bounded by the active caller set.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	mu         sync.Mutex
	windows    map[string]*window
	lastPrune  time.Time
}

type window struct {
	count     int
	startedAt time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		windows:    make(map[string]*window),
		lastPrune:  time.Now(),
	}
}

// Allow checks if the request is within the rate limit.
// Fails open: any internal error allows the request.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = "default"
	}

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}

	if rpm <= 0 {
		return nil // no limit
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.pruneLocked(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.startedAt) >= time.Minute {
		l.windows[key] = &window{count: 1, startedAt: now}
		return nil
	}

	w.count++
	if w.count > rpm {
		return ErrTooManyRequests
	}

	return nil
}

// pruneLocked drops windows idle for more than a minute. Runs at most once
// per minute. Caller holds l.mu.
func (l *InProcessLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.startedAt) >= time.Minute {
			delete(l.windows, key)
		}
	}
	l.lastPrune = now
}
