package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// dialTimeout bounds a single connection attempt in the reconnect loop.
const dialTimeout = 2 * time.Second

// ErrNotConnected is returned by Publish while no broker channel is open.
var ErrNotConnected = errors.New("events: broker not connected")

// Publisher sends domain events.  Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop drops every event.  It is used when events are disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable topic
// exchange, routed by event type.  Run owns the connection; Publish never
// dials and fails fast with ErrNotConnected while the broker is away.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *log.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string, logger *log.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange, logger: logger}
}

// Run keeps a channel open until ctx is cancelled, redialling with
// exponential backoff whenever the connection or channel closes.
func (p *AMQPPublisher) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, ch, err := p.connect()
		if err != nil {
			p.logger.Warnf("events: failed to connect broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		p.mu.Lock()
		p.conn, p.ch = conn, ch
		p.mu.Unlock()
		p.logger.Infof("events: publishing to exchange %q", p.exchange)

		select {
		case <-ctx.Done():
			p.reset()
			return ctx.Err()
		case err := <-connClosed:
			p.logger.Warnf("events: connection closed: %v; reconnecting", err)
		case err := <-chClosed:
			p.logger.Warnf("events: channel closed: %v; reconnecting", err)
		}
		p.reset()
	}
}

func (p *AMQPPublisher) connect() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("exchange declare: %w", err)
	}
	return conn, ch, nil
}

// Publish sends ev with its type as routing key.  Errors are logged and
// returned; callers are free to ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.RLock()
	ch := p.ch
	p.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		p.logger.Warnf("events: %s not published: %v", ev.Type, ErrNotConnected)
		return ErrNotConnected
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = ch.PublishWithContext(ctx,
		p.exchange, // exchange
		ev.Type,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Timestamp:    ev.OccurredAt,
			Type:         ev.Type,
			Body:         body,
		})
	if err != nil {
		p.logger.Warnf("events: publish %s failed: %v", ev.Type, err)
		return err
	}
	return nil
}

// Close releases the broker connection.  Run reconnects unless its
// context is cancelled as well.
func (p *AMQPPublisher) Close() error {
	p.reset()
	return nil
}

func (p *AMQPPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
