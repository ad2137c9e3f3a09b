package websocket

import (
	"errors"
	"sync"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/rs/zerolog/log"
)

var (
	ErrClientClosed = errors.New("client is closed")
	ErrClientSlow   = errors.New("client outbox is full")
)

// Subscriber is a connection that receives ledger events
type Subscriber interface {
	ID() string
	Caller() domain.Caller
	Deliver(data []byte) error
	Close() error
}

// Hub tracks feed subscribers by member and fans ledger events out to the
// ones allowed to see them. It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	members map[int32]map[string]Subscriber
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{members: make(map[int32]map[string]Subscriber)}
}

// Register adds a subscriber under its member
func (h *Hub) Register(s Subscriber) {
	caller := s.Caller()

	h.mu.Lock()
	if h.members[caller.MemberID] == nil {
		h.members[caller.MemberID] = make(map[string]Subscriber)
	}
	h.members[caller.MemberID][s.ID()] = s
	h.mu.Unlock()

	log.Debug().
		Int32("member_id", caller.MemberID).
		Str("role", string(caller.Role)).
		Str("client_id", s.ID()).
		Msg("Feed subscriber registered")
}

// Unregister removes a subscriber. Unknown subscribers are ignored.
func (h *Hub) Unregister(s Subscriber) {
	memberID := s.Caller().MemberID

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.members[memberID]
	if !ok {
		return
	}
	if _, ok := subs[s.ID()]; !ok {
		return
	}
	delete(subs, s.ID())
	if len(subs) == 0 {
		delete(h.members, memberID)
	}
}

// Broadcast delivers an event to every subscriber in its audience. Subscribers
// that cannot keep up are disconnected.
func (h *Hub) Broadcast(aud events.Audience, event events.Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to serialize event")
		return
	}

	recipients := h.audience(aud)
	for _, s := range recipients {
		if err := s.Deliver(data); err != nil {
			log.Warn().
				Err(err).
				Int32("member_id", s.Caller().MemberID).
				Str("client_id", s.ID()).
				Msg("Dropping feed subscriber")
			h.Unregister(s)
			_ = s.Close()
		}
	}

	log.Debug().
		Str("event_type", event.Type).
		Int("recipients", len(recipients)).
		Msg("Broadcast ledger event")
}

func (h *Hub) audience(aud events.Audience) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Subscriber
	for memberID, subs := range h.members {
		for _, s := range subs {
			if aud.Includes(memberID, s.Caller().Role == domain.RoleAdmin) {
				out = append(out, s)
			}
		}
	}
	return out
}

// ClientCount returns the number of connections a member holds
func (h *Hub) ClientCount(memberID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[memberID])
}

// TotalClientCount returns the number of connected subscribers
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.members {
		total += len(subs)
	}
	return total
}
