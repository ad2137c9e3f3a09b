package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if !rl.Allow(7) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow(7) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentMembers(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Errorf("Member 1 request %d should be allowed", i+1)
		}
	}
	if rl.Allow(1) {
		t.Error("Member 1 should be rate limited")
	}

	for i := 0; i < 3; i++ {
		if !rl.Allow(2) {
			t.Errorf("Member 2 request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_LimitsMember(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}
	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contributions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		WithCaller(c, domain.Caller{MemberID: 4, Role: domain.RoleMember})
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := call()
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	rec := call()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}
