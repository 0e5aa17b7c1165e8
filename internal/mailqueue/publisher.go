// Package mailqueue publishes outgoing mail to a RabbitMQ exchange where a
// separate delivery worker picks it up.
package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var (
	ErrNacked         = errors.New("message rejected by broker")
	ErrConfirmTimeout = errors.New("timeout waiting for confirmation")
	ErrClosed         = errors.New("publisher closed")
)

// Channel is the subset of *amqp091.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp091.Confirmation) chan amqp091.Confirmation
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Config struct {
	Exchange       string
	RoutingKey     string
	ConfirmTimeout time.Duration
}

// Publisher sends persistent JSON messages in confirm mode. Publishes are
// serialized and each one waits for the confirmation carrying its own
// delivery tag; late confirmations of abandoned publishes are discarded.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     io.Closer
	confirms chan amqp091.Confirmation
	cfg      Config
	now      func() time.Time
}

const confirmBuffer = 8

// Dial connects to url and opens a confirm-mode publisher on a fresh channel.
func Dial(url string, cfg Config) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p, err := NewPublisher(ch, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, cfg Config) (*Publisher, error) {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 10 * time.Second
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable confirm mode: %w", err)
	}
	return &Publisher{
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp091.Confirmation, confirmBuffer)),
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// Publish sends body and waits for the broker's ack.
func (p *Publisher) Publish(ctx context.Context, messageID string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return ErrClosed
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    p.now(),
	}
	seq := p.ch.GetNextPublishSeqNo()
	if err := p.ch.PublishWithContext(ctx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	timer := time.NewTimer(p.cfg.ConfirmTimeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-p.confirms:
			if !ok {
				return ErrClosed
			}
			if confirm.DeliveryTag < seq {
				continue
			}
			if !confirm.Ack {
				return ErrNacked
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for confirmation: %w", ctx.Err())
		case <-timer.C:
			return ErrConfirmTimeout
		}
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
