package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTValidator records the token it was asked to validate
type mockJWTValidator struct {
	caller domain.Caller
	err    error
	token  string
}

func (m *mockJWTValidator) ValidateToken(ctx context.Context, token string) (domain.Caller, error) {
	m.token = token
	return m.caller, m.err
}

var feedOrigins = []string{"http://localhost:3000", "https://ledger.app"}

func TestWebSocketHandler_HandleWS_RejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
	}{
		{"missing token", "/ws", nil},
		{"invalid token", "/ws?token=expired-jwt", errors.New("token expired")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := websocket.NewHub()
			h := NewWebSocketHandler(hub, &mockJWTValidator{err: tt.err}, feedOrigins)

			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), httptest.NewRecorder())
			err := h.HandleWS(c)

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
			assert.Zero(t, hub.TotalClientCount())
		})
	}
}

func TestWebSocketHandler_HandleWS_ValidTokenReachesUpgrade(t *testing.T) {
	hub := websocket.NewHub()
	validator := &mockJWTValidator{caller: domain.Caller{MemberID: 42, Role: domain.RoleMember}}
	h := NewWebSocketHandler(hub, validator, feedOrigins)

	// a plain GET carries no upgrade headers, so the upgrade itself fails
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil), httptest.NewRecorder())
	err := h.HandleWS(c)

	require.Error(t, err)
	var httpErr *echo.HTTPError
	assert.False(t, errors.As(err, &httpErr), "auth should pass before the upgrade is attempted")
	assert.Equal(t, "valid-jwt", validator.token)
	assert.Zero(t, hub.TotalClientCount())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker(feedOrigins)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://ledger.app", true},
		{"https://evil.example", false},
		{"", true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, check(req), "origin %q", tt.origin)
	}
}
