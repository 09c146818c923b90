// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lapsehq/lapse-auth/internal/httputil"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterStaleAfter    = time.Hour
)

// ipLimiters tracks one token bucket per caller address. Entries idle for
// limiterStaleAfter are dropped by a periodic sweep so the map does not grow
// without bound under address churn.
type ipLimiters struct {
	mu      sync.Mutex
	entries map[string]*ipLimiterEntry
	rps     rate.Limit
	burst   int
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenRateLimitMiddleware applies a per-address token bucket to the token
// exchange endpoint. Exchange authenticates service clients itself, so the
// limiter keys on c.ClientIP() (which resolves X-Forwarded-For and
// X-Real-IP) to bound secret-guessing attempts before authentication runs.
// Rejections answer 429 with the protocol error body and a Retry-After hint.
func TokenRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipLimiters{
		entries: make(map[string]*ipLimiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go store.sweep(limiterSweepInterval, limiterStaleAfter)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := store.get(ip)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		retryAfter := int(reservation.Delay().Seconds())
		reservation.Cancel()

		logger.Debug("token exchange rate limit exceeded",
			slog.String("client_ip", ip),
			slog.Int("retry_after", retryAfter),
		)
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ProtocolErrorResponse{
			Error:            "rate_limited",
			ErrorDescription: "too many token requests from this address",
		})
	}
}

// get returns the limiter for ip, creating it on first sight.
func (s *ipLimiters) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.entries[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// sweep drops entries that have not been seen within staleAfter.
func (s *ipLimiters) sweep(interval, staleAfter time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		threshold := time.Now().Add(-staleAfter)
		s.mu.Lock()
		for ip, entry := range s.entries {
			if entry.lastSeen.Before(threshold) {
				delete(s.entries, ip)
			}
		}
		s.mu.Unlock()
	}
}
