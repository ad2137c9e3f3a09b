package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	subject string
	err     error
}

func (s stubValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: s.subject},
	}, nil
}

type stubResolver map[string]domain.Caller

func (s stubResolver) ResolveCaller(ctx context.Context, subject string) (domain.Caller, error) {
	switch subject {
	case "auth0|inactive":
		return domain.Caller{}, domain.ErrMemberInactive
	case "auth0|broken":
		return domain.Caller{}, errors.New("db down")
	}
	caller, ok := s[subject]
	if !ok {
		return domain.Caller{}, domain.ErrMemberNotFound
	}
	return caller, nil
}

var testCallers = stubResolver{
	"auth0|admin":  {MemberID: 1, Role: domain.RoleAdmin},
	"auth0|member": {MemberID: 2, Role: domain.RoleMember},
}

func runAuth(t *testing.T, v tokenValidator, header string) (*httptest.ResponseRecorder, *domain.Caller) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	m := &AuthMiddleware{validator: v, callers: testCallers}
	var seen *domain.Caller
	err := m.Authenticate()(func(c echo.Context) error {
		caller, ok := GetCaller(c)
		require.True(t, ok)
		seen = &caller
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, seen
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		validator  tokenValidator
		header     string
		wantStatus int
		wantCaller *domain.Caller
	}{
		{"missing header", stubValidator{subject: "auth0|admin"}, "", http.StatusUnauthorized, nil},
		{"wrong scheme", stubValidator{subject: "auth0|admin"}, "Basic abc", http.StatusUnauthorized, nil},
		{"invalid token", stubValidator{err: errors.New("expired")}, "Bearer abc", http.StatusUnauthorized, nil},
		{"unknown subject", stubValidator{subject: "auth0|stranger"}, "Bearer abc", http.StatusForbidden, nil},
		{"inactive member", stubValidator{subject: "auth0|inactive"}, "Bearer abc", http.StatusForbidden, nil},
		{"lookup failure", stubValidator{subject: "auth0|broken"}, "Bearer abc", http.StatusInternalServerError, nil},
		{"member", stubValidator{subject: "auth0|member"}, "Bearer abc", http.StatusOK, &domain.Caller{MemberID: 2, Role: domain.RoleMember}},
		{"admin", stubValidator{subject: "auth0|admin"}, "bearer abc", http.StatusOK, &domain.Caller{MemberID: 1, Role: domain.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, caller := runAuth(t, tt.validator, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCaller, caller)
			if tt.wantStatus != http.StatusOK {
				var p problemDetails
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
				assert.Equal(t, tt.wantStatus, p.Status)
				assert.Equal(t, "/api/v1/me", p.Instance)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := []struct {
		name       string
		caller     *domain.Caller
		wantStatus int
	}{
		{"no caller", nil, http.StatusUnauthorized},
		{"member", &domain.Caller{MemberID: 2, Role: domain.RoleMember}, http.StatusForbidden},
		{"admin", &domain.Caller{MemberID: 1, Role: domain.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/members", nil), rec)
			if tt.caller != nil {
				WithCaller(c, *tt.caller)
			}

			require.NoError(t, RequireAdmin()(handler)(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetAuth0ID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if got := GetAuth0ID(c); got != "" {
		t.Errorf("Expected empty id, got %q", got)
	}

	ctx := context.WithValue(c.Request().Context(), Auth0IDKey, "auth0|12345")
	c.SetRequest(c.Request().WithContext(ctx))
	if got := GetAuth0ID(c); got != "auth0|12345" {
		t.Errorf("Expected %q, got %q", "auth0|12345", got)
	}
}

func TestScopeFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	anonymous := ScopeFromContext(c)
	assert.False(t, anonymous.IsAdmin())
	assert.Equal(t, int32(0), anonymous.CallerID())

	WithCaller(c, domain.Caller{MemberID: 9, Role: domain.RoleMember})
	scope := ScopeFromContext(c)
	assert.False(t, scope.IsAdmin())
	assert.Equal(t, int32(9), scope.CallerID())
	require.NotNil(t, scope.ContributionOwner())
	assert.Equal(t, int32(9), *scope.ContributionOwner())
}

func TestAuthMiddleware_ValidateToken(t *testing.T) {
	m := &AuthMiddleware{validator: stubValidator{subject: "auth0|member"}, callers: testCallers}
	caller, err := m.ValidateToken(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, domain.Caller{MemberID: 2, Role: domain.RoleMember}, caller)

	m = &AuthMiddleware{validator: stubValidator{err: errors.New("expired")}, callers: testCallers}
	_, err = m.ValidateToken(context.Background(), "raw")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m = &AuthMiddleware{validator: stubValidator{subject: "auth0|stranger"}, callers: testCallers}
	_, err = m.ValidateToken(context.Background(), "raw")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
