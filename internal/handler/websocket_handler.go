package handler

import (
	"context"
	"net/http"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTValidator resolves a feed token to the caller it belongs to
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.Caller, error)
}

// WebSocketHandler upgrades authenticated requests to the live ledger feed
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator JWTValidator
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts the configured CORS origins and non-browser clients,
// which send no Origin header
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		log.Warn().Str("origin", origin).Msg("Ledger feed rejected: origin not allowed")
		return false
	}
}

// HandleWS handles GET /ws?token=
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	caller, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("Ledger feed rejected: invalid token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Int32("member_id", caller.MemberID).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, caller, h.hub)
	log.Info().
		Int32("member_id", caller.MemberID).
		Str("role", string(caller.Role)).
		Str("client_id", client.ID()).
		Msg("Ledger feed connected")

	go client.Serve()
	return nil
}
