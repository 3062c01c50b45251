package server

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// EventRateLimiter limits the rate of counter hook events per source IP.
// Uses token bucket algorithm via golang.org/x/time/rate.
type EventRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewEventRateLimiter creates a rate limiter with the specified events per second and burst.
func NewEventRateLimiter(eventsPerSecond float64, burst int) *EventRateLimiter {
	return &EventRateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(eventsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Allow checks if an event from the given IP should be accepted.
// Returns true if allowed (token available), false if rate limited.
func (l *EventRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Periodic cleanup of inactive limiters (every 5 minutes)
	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:  rate.NewLimiter(l.rate, l.burst),
			lastSeen: time.Now(),
		}
		l.limiters[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes limiters that haven't been used in 10 minutes.
// Must be called with mu held.
func (l *EventRateLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// ActiveLimiters returns the number of active rate limiters.
func (l *EventRateLimiter) ActiveLimiters() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (s *Server) rateLimitEvents(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.eventLimiter.Allow(c.RealIP()) {
			return echo.NewHTTPError(429, "event rate limit exceeded")
		}
		return next(c)
	}
}
