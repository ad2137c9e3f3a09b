package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// CallerKey is the context key for the resolved ledger caller
	CallerKey contextKey = "caller"
)

// ErrInvalidToken is returned when a bearer token fails validation
var ErrInvalidToken = errors.New("invalid token")

// CallerResolver maps a token subject to an active member
type CallerResolver interface {
	ResolveCaller(ctx context.Context, subject string) (domain.Caller, error)
}

// tokenValidator is the part of the Auth0 validator the middleware needs
type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware validates bearer tokens and resolves the calling member
type AuthMiddleware struct {
	validator tokenValidator
	callers   CallerResolver
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domainName, audience string, callers CallerResolver) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domainName + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{validator: jwtValidator, callers: callers}, nil
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*validator.ValidatedClaims, domain.Caller, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, domain.Caller{}, ErrInvalidToken
	}
	caller, err := m.callers.ResolveCaller(ctx, validated.RegisteredClaims.Subject)
	return validated, caller, err
}

// ValidateToken resolves a raw token to its caller. The ledger feed uses it
// because browsers cannot set headers on websocket upgrades.
func (m *AuthMiddleware) ValidateToken(ctx context.Context, token string) (domain.Caller, error) {
	_, caller, err := m.resolve(ctx, token)
	return caller, err
}

// Authenticate returns an Echo middleware that validates the bearer token and
// stores the caller in the request context
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "invalid authorization header format")
			}

			claims, caller, err := m.resolve(c.Request().Context(), parts[1])
			switch {
			case errors.Is(err, ErrInvalidToken):
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "invalid token")
			case errors.Is(err, domain.ErrNotFound):
				log.Debug().Str("auth0_id", claims.RegisteredClaims.Subject).Msg("No member linked to token subject")
				return forbiddenError(c, "no member account is linked to this identity")
			case errors.Is(err, domain.ErrForbidden):
				return forbiddenError(c, err.Error())
			case err != nil:
				log.Error().Err(err).Str("auth0_id", claims.RegisteredClaims.Subject).Msg("Caller lookup failed")
				return internalError(c)
			}

			auth0ID := claims.RegisteredClaims.Subject
			ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, Auth0IDKey, auth0ID)
			ctx = context.WithValue(ctx, CallerKey, caller)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the administrator role
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := GetCaller(c)
			if !ok {
				return unauthorizedError(c, "authentication required")
			}
			if caller.Role != domain.RoleAdmin {
				return forbiddenError(c, domain.ErrAdminRequired.Error())
			}
			return next(c)
		}
	}
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetCaller extracts the resolved caller from the context
func GetCaller(c echo.Context) (domain.Caller, bool) {
	caller, ok := c.Request().Context().Value(CallerKey).(domain.Caller)
	return caller, ok
}

// WithCaller stores a caller in the request context
func WithCaller(c echo.Context, caller domain.Caller) {
	ctx := context.WithValue(c.Request().Context(), CallerKey, caller)
	c.SetRequest(c.Request().WithContext(ctx))
}

// ScopeFromContext returns the access scope of the request's caller.
// Requests without a caller get an empty member scope that matches nothing.
func ScopeFromContext(c echo.Context) domain.Scope {
	caller, _ := GetCaller(c)
	return domain.ScopeFor(caller)
}
