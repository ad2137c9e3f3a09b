package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu          sync.Mutex
	declareErr  error
	declared    []string
	kinds       []string
	publishings []published
	closed      bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	f.declared = append(f.declared, name)
	f.kinds = append(f.kinds, kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishings = append(f.publishings, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.publishings)
}

func TestNewPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}

	_, err := newPublisher(ch, "ledger.events")
	require.NoError(t, err)
	assert.Equal(t, []string{"ledger.events"}, ch.declared)
	assert.Equal(t, []string{"topic"}, ch.kinds)
}

func TestNewPublisher_DeclareError(t *testing.T) {
	_, err := newPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "ledger.events")
	assert.ErrorContains(t, err, "declare exchange")
}

func TestPublisher_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "ledger.events")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	ev := events.NewEvent(events.EventTypePaid, events.EntityTypeContribution, map[string]int32{"id": 9})
	p.Publish(events.ForMember(3), ev)

	require.Eventually(t, func() bool { return ch.count() == 1 }, time.Second, 5*time.Millisecond)

	got := ch.publishings[0]
	assert.Equal(t, "ledger.events", got.exchange)
	assert.Equal(t, "contribution.paid", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, int32(3), got.msg.Headers["member_id"])
	assert.Equal(t, false, got.msg.Headers["public"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "contribution.paid", body["type"])
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	p, err := newPublisher(&fakeChannel{}, "ledger.events")
	require.NoError(t, err)

	ev := events.NewEvent(events.EventTypeCreated, events.EntityTypeExpenditure, nil)
	assert.NotPanics(t, func() {
		for i := 0; i < queueSize+10; i++ {
			p.Publish(events.Everyone(), ev)
		}
	})
	assert.Len(t, p.queue, queueSize)
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, "ledger.events")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}
	assert.True(t, ch.closed)
}
