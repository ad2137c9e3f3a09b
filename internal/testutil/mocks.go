package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/events"
)

// PublishedEvent is an event captured by MockPublisher
type PublishedEvent struct {
	Audience events.Audience
	Event    events.Event
}

// MockPublisher records published ledger events
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (m *MockPublisher) Publish(aud events.Audience, event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Audience: aud, Event: event})
}

// Events returns a copy of the recorded events
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the recorded event types in order
func (m *MockPublisher) Types() []string {
	var types []string
	for _, e := range m.Events() {
		types = append(types, e.Event.Type)
	}
	return types
}

var _ events.Publisher = (*MockPublisher)(nil)

// MockProofStore is an in-memory storage.ProofStore
type MockProofStore struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Types    map[string]string
	UploadFn func(objectPath string) error
}

// NewMockProofStore creates a new MockProofStore
func NewMockProofStore() *MockProofStore {
	return &MockProofStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

// Upload stores the object
func (m *MockProofStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		if err := m.UploadFn(objectPath); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf.Bytes()
	m.Types[objectPath] = contentType
	return objectPath, nil
}

// Delete removes the object
func (m *MockProofStore) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	delete(m.Types, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake signed URL
func (m *MockProofStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://proofs.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// Has reports whether an object is stored
func (m *MockProofStore) Has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[objectPath]
	return ok
}
