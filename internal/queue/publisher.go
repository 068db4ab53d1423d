// Package queue publishes reservation events to a RabbitMQ topic exchange so
// other campus systems can react to bookings without polling.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	RoutingKeyConfirmed = "reservation.confirmed"
	RoutingKeyCancelled = "reservation.cancelled"
	RoutingKeyReminder  = "reservation.reminder"
)

// redialInterval is the minimum gap between two reconnect attempts.
const redialInterval = 5 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialer opens a connection and a channel with the exchange declared.
type dialer func() (channel, io.Closer, error)

// Publisher sends persistent JSON messages to one exchange. A channel or
// connection dropped by the broker is redialed on the next publish.
type Publisher struct {
	mu       sync.Mutex
	dial     dialer
	conn     io.Closer
	ch       channel
	exchange string
	now      func() time.Time
	lastDial time.Time
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	p := &Publisher{
		dial:     func() (channel, io.Closer, error) { return dialExchange(url, exchange) },
		exchange: exchange,
		now:      time.Now,
	}
	if err := p.reconnect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialExchange(url, exchange string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		// The library closes the notify channel after a clean shutdown
		// without sending.
		if amqpErr, ok := <-closed; ok {
			log.Warn().Err(amqpErr).Str("exchange", exchange).Msg("RabbitMQ connection lost; will redial on next publish")
		}
	}()
	return ch, conn, nil
}

// reconnect drops the current connection and dials a new one. Callers hold
// p.mu or own p exclusively.
func (p *Publisher) reconnect() error {
	p.release()
	p.lastDial = p.now()
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.conn = ch, conn
	return nil
}

func (p *Publisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// ready returns with an open channel, redialing at most once per
// redialInterval.
func (p *Publisher) ready() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if p.dial == nil {
		return amqp.ErrClosed
	}
	if !p.lastDial.IsZero() && p.now().Sub(p.lastDial) < redialInterval {
		return fmt.Errorf("rabbitmq reconnect backoff: %w", amqp.ErrClosed)
	}
	if err := p.reconnect(); err != nil {
		log.Error().Err(err).Str("exchange", p.exchange).Msg("RabbitMQ reconnect failed")
		return err
	}
	log.Info().Str("exchange", p.exchange).Msg("RabbitMQ reconnected")
	return nil
}

// PublishJSON marshals v and publishes it as a persistent message. A publish
// that finds the channel closed is retried once on a fresh connection.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", key, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, key, b)
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		p.release()
		err = p.publish(ctx, key, b)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, body []byte) error {
	if err := p.ready(); err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dial = nil
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	return err
}
