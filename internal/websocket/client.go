package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Keepalive timings for a ledger feed connection
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	outboxSize     = 256
)

// welcome is the first frame a dashboard receives after connecting
type welcome struct {
	Type     string      `json:"type"`
	MemberID int32       `json:"memberId"`
	Role     domain.Role `json:"role"`
}

// Client is one dashboard connection following the ledger feed
type Client struct {
	id     string
	caller domain.Caller
	conn   *websocket.Conn
	hub    *Hub
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewClient creates a feed connection for an authenticated caller
func NewClient(conn *websocket.Conn, caller domain.Caller, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		caller: caller,
		conn:   conn,
		hub:    hub,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
		logger: log.With().
			Str("component", "ledger_feed").
			Str("client_id", id).
			Int32("member_id", caller.MemberID).
			Logger(),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Caller() domain.Caller { return c.caller }

// Deliver queues an encoded event without blocking. A full outbox means the
// peer stopped reading and the event is refused.
func (c *Client) Deliver(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbox <- data:
		return nil
	default:
		return ErrClientSlow
	}
}

// Close terminates the connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Serve greets the peer, joins the hub and runs the connection until either
// side goes away. It blocks.
func (c *Client) Serve() {
	if hello, err := json.Marshal(welcome{Type: "connected", MemberID: c.caller.MemberID, Role: c.caller.Role}); err == nil {
		c.outbox <- hello
	}

	c.hub.Register(c)
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	go c.writeLoop()
	c.readLoop()
}

// readLoop only services control frames; the feed is server to client
func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("Ledger feed closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbox:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Warn().Err(err).Msg("Ledger feed write failed")
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, payload)
}
