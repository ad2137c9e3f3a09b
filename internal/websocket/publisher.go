package websocket

import "github.com/appdotbuilder/member-contributions-manager/internal/events"

// Ensure Hub implements events.Publisher
var _ events.Publisher = (*Hub)(nil)

// Publish implements events.Publisher by broadcasting the event to its audience
func (h *Hub) Publish(aud events.Audience, event events.Event) {
	h.Broadcast(aud, event)
}
