package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Per-member request budget defaults
const (
	DefaultRateLimit = 120
	DefaultBurstSize = 20

	// idle members' limiters are forgotten after LimiterTTL
	CleanupInterval = 5 * time.Minute
	LimiterTTL      = 10 * time.Minute
)

// RateLimiter manages per-member rate limiting
type RateLimiter struct {
	limiters          map[int32]*limiterEntry
	mu                sync.RWMutex
	requestsPerMinute int
	rateLimit         float64
	burstSize         int
	stopCh            chan struct{}
	stopOnce          sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	if burstSize <= 0 {
		burstSize = DefaultBurstSize
	}
	rl := &RateLimiter{
		limiters:          make(map[int32]*limiterEntry),
		requestsPerMinute: requestsPerMinute,
		rateLimit:         float64(requestsPerMinute) / 60.0,
		burstSize:         burstSize,
		stopCh:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given member is allowed
func (r *RateLimiter) Allow(memberID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[memberID]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(rate.Limit(r.rateLimit), r.burstSize),
			lastSeen: time.Now(),
		}
		r.limiters[memberID] = entry
	} else {
		entry.lastSeen = time.Now()
	}

	return entry.limiter.Allow()
}

// GetState returns the current state for rate limit headers
func (r *RateLimiter) GetState(memberID int32) (remaining int, resetTime time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.limiters[memberID]
	if !exists {
		return r.burstSize, time.Now().Add(time.Minute)
	}

	tokens := int(entry.limiter.Tokens())
	if tokens < 0 {
		tokens = 0
	}

	resetDuration := time.Duration(float64(r.burstSize-tokens)/r.rateLimit) * time.Second
	return tokens, time.Now().Add(resetDuration)
}

// cleanup periodically removes stale limiters
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for memberID, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > LimiterTTL {
					delete(r.limiters, memberID)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware returns an Echo middleware that limits each authenticated
// member. It must run after Authenticate; anonymous requests pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := GetCaller(c)
			if !ok {
				return next(c)
			}

			allowed := rl.Allow(caller.MemberID)
			remaining, resetTime := rl.GetState(caller.MemberID)
			if !allowed {
				remaining = 0
			}
			rl.writeHeaders(c.Response().Header(), remaining, resetTime)

			if allowed {
				return next(c)
			}

			retryAfter := max(int(time.Until(resetTime).Seconds()), 1)
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			log.Warn().
				Int32("member_id", caller.MemberID).
				Str("path", c.Path()).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			return problem(c, http.StatusTooManyRequests, errorTypeRateLimit, "Rate Limit Exceeded",
				fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
		}
	}
}

func (r *RateLimiter) writeHeaders(h http.Header, remaining int, reset time.Time) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.requestsPerMinute))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}
