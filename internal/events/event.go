package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated       EventType = "created"
	EventTypeUpdated       EventType = "updated"
	EventTypeDeleted       EventType = "deleted"
	EventTypePaid          EventType = "paid"
	EventTypeStatusChanged EventType = "status_changed"
	EventTypeProofAttached EventType = "proof_attached"
	EventTypeOverdueSwept  EventType = "overdue_swept"
)

// EntityType represents the type of ledger entity the event is about
type EntityType string

const (
	EntityTypeContribution EntityType = "contribution"
	EntityTypeExpenditure  EntityType = "expenditure"
	EntityTypeMember       EntityType = "member"
)

// Event is a ledger change notification
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "contribution.paid"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "contribution"
	Payload   interface{} `json:"payload"`   // Full entity data, or {"id": ...} for deletions
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Deleted builds the payload of a deletion event
func Deleted(id int32) map[string]int32 {
	return map[string]int32{"id": id}
}

// Audience says who may observe an event. Administrators observe everything.
type Audience struct {
	// MemberID is the member the event concerns; 0 for none
	MemberID int32
	// Public events are visible to every member
	Public bool
}

// AdminsOnly is the audience of administrative events
var AdminsOnly = Audience{}

// ForMember targets administrators and the given member
func ForMember(memberID int32) Audience {
	return Audience{MemberID: memberID}
}

// Everyone targets all connected members
func Everyone() Audience {
	return Audience{Public: true}
}

// Includes reports whether a member (or administrator) may observe the event
func (a Audience) Includes(memberID int32, isAdmin bool) bool {
	return isAdmin || a.Public || (a.MemberID != 0 && a.MemberID == memberID)
}
