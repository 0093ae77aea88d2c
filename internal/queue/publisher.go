package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/car-rental-marketplace/internal/logger"
)

const (
	dialTimeout   = 3 * time.Second
	redialBackoff = 10 * time.Second
)

// ErrBrokerUnavailable is returned by Publish while a failed redial is
// backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher sends booking events to a durable RabbitMQ queue over one
// long-lived connection. The channel is not safe for concurrent use, so
// publishes are serialised by mu. Dials are bounded by dialTimeout and a
// failed redial is not retried before redialBackoff has passed, so a dead
// broker costs callers at most one short dial.
type Publisher struct {
	url   string
	queue string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewPublisher dials url and declares queue. It fails fast so callers can
// fall back to NoopPublisher when the broker is unreachable at startup.
func NewPublisher(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	p := &Publisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Publish sends ev as a persistent JSON message. A closed channel or
// connection is re-established once before giving up; while a failed
// redial backs off Publish returns ErrBrokerUnavailable without dialing.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() || p.conn == nil || p.conn.IsClosed() {
		p.closeLocked()
		if time.Now().Before(p.nextDial) {
			return ErrBrokerUnavailable
		}
		if err := p.connect(); err != nil {
			p.nextDial = time.Now().Add(redialBackoff)
			return err
		}
		logger.Info("rabbitmq publisher reconnected", "queue", p.queue)
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func encodeEvent(ev BookingEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    ts,
		Body:         body,
	}, nil
}

// NoopPublisher discards events. It is used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
