package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventTypePaid, EntityTypeContribution, map[string]interface{}{"id": 7})

	assert.Equal(t, "contribution.paid", ev.Type)
	assert.Equal(t, EntityTypeContribution, ev.Entity)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, "UTC", ev.Timestamp.Location().String())
}

func TestEvent_ToJSON(t *testing.T) {
	ev := NewEvent(EventTypeDeleted, EntityTypeExpenditure, Deleted(3))

	data, err := ev.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "expenditure.deleted", decoded["type"])
	assert.Equal(t, "expenditure", decoded["entity"])
	assert.Equal(t, map[string]interface{}{"id": float64(3)}, decoded["payload"])
	assert.Contains(t, decoded, "timestamp")
}

func TestAudience_Includes(t *testing.T) {
	tests := []struct {
		name     string
		aud      Audience
		memberID int32
		isAdmin  bool
		want     bool
	}{
		{"admin sees admin-only", AdminsOnly, 1, true, true},
		{"member excluded from admin-only", AdminsOnly, 2, false, false},
		{"owner sees own event", ForMember(2), 2, false, true},
		{"other member excluded", ForMember(2), 3, false, false},
		{"admin sees member event", ForMember(2), 1, true, true},
		{"member sees public", Everyone(), 3, false, true},
		{"zero member id never matches", ForMember(0), 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.aud.Includes(tt.memberID, tt.isAdmin))
		})
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(aud Audience, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestMultiPublisher_FansOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	pub := MultiPublisher{a, b, &NoOpPublisher{}}

	pub.Publish(Everyone(), NewEvent(EventTypeCreated, EntityTypeExpenditure, nil))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
