package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 256
)

// channel is the part of *amqp091.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type outgoing struct {
	aud   events.Audience
	event events.Event
}

// Publisher forwards ledger events to a RabbitMQ topic exchange. The routing key
// is the event type (e.g. "contribution.paid") so consumers can bind on patterns
// such as "contribution.*". Publish never blocks the caller; a background loop
// drains a bounded queue.
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	queue    chan outgoing
	logger   zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the broker and declares the exchange
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		queue:    make(chan outgoing, queueSize),
		logger:   log.With().Str("component", "amqp_publisher").Logger(),
		done:     make(chan struct{}),
	}, nil
}

// Publish enqueues an event for delivery; events are dropped when the queue is full
func (p *Publisher) Publish(aud events.Audience, event events.Event) {
	select {
	case p.queue <- outgoing{aud: aud, event: event}:
	default:
		p.logger.Warn().Str("event_type", event.Type).Msg("AMQP queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled or the publisher is closed
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info().Str("exchange", p.exchange).Msg("AMQP publisher started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case msg := <-p.queue:
			if err := p.send(ctx, msg); err != nil {
				p.logger.Error().Err(err).Str("event_type", msg.event.Type).Msg("Failed to publish event")
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, msg outgoing) error {
	body, err := msg.event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,     // exchange
		msg.event.Type, // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.event.Timestamp,
			Type:         msg.event.Type,
			Headers: amqp091.Table{
				"member_id": msg.aud.MemberID,
				"public":    msg.aud.Public,
			},
			Body: body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug().Str("event_type", msg.event.Type).Msg("Published ledger event")
	return nil
}

// Close stops the delivery loop and closes the channel and connection
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.channel != nil {
			p.channel.Close()
		}
		if p.conn != nil {
			err = p.conn.Close()
		}
	})
	return err
}

var _ events.Publisher = (*Publisher)(nil)
