package events

// Publisher delivers ledger events to observers
type Publisher interface {
	Publish(aud Audience, event Event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when a transport is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(aud Audience, event Event) {}

// MultiPublisher fans an event out to several transports
type MultiPublisher []Publisher

// Publish forwards the event to every transport
func (m MultiPublisher) Publish(aud Audience, event Event) {
	for _, p := range m {
		p.Publish(aud, event)
	}
}

var (
	_ Publisher = (*NoOpPublisher)(nil)
	_ Publisher = MultiPublisher(nil)
)
