package service

import (
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/appdotbuilder/member-contributions-manager/internal/util"
)

// calendar resolves "now" and "today" in the ledger's timezone
type calendar struct {
	clock clock.Clock
	loc   *time.Location
}

func newCalendar(clk clock.Clock, loc *time.Location) calendar {
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return calendar{clock: clk, loc: loc}
}

// now returns the current instant in the ledger timezone
func (c calendar) now() time.Time {
	return c.clock.Now().In(c.loc)
}

// today returns the current ledger date as midnight UTC
func (c calendar) today() time.Time {
	return util.DateOf(c.clock.Now(), c.loc)
}

// eventSink holds an optional publisher
type eventSink struct {
	eventPublisher events.Publisher
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *eventSink) SetEventPublisher(publisher events.Publisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes an event if a publisher is configured
func (s *eventSink) publishEvent(aud events.Audience, event events.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(aud, event)
	}
}
