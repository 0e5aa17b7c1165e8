// Package notify decides how account mail leaves the server. Delivery itself
// happens elsewhere: mail is either queued on RabbitMQ or just logged.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// Notifier sends one mail. It fails with common.ErrInvalidMail when address
// is not a valid email or subject or body is empty.
type Notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}

// Mail is the envelope put on the queue.
type Mail struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

func (m Mail) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.To, validation.Required, is.Email),
		validation.Field(&m.Subject, validation.Required),
		validation.Field(&m.Body, validation.Required),
	)
}

func newMail(address, subject, body string, now time.Time) (Mail, error) {
	m := Mail{
		ID:       uuid.NewString(),
		To:       address,
		Subject:  subject,
		Body:     body,
		QueuedAt: now.UTC(),
	}
	if err := m.Validate(); err != nil {
		return Mail{}, errors.Join(common.ErrInvalidMail, err)
	}
	return m, nil
}

// Publisher is satisfied by *mailqueue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

// QueueNotifier publishes validated mail as JSON.
type QueueNotifier struct {
	publisher Publisher
	logger    logging.Logger
	now       func() time.Time
}

func NewQueueNotifier(p Publisher, logger logging.Logger) *QueueNotifier {
	return &QueueNotifier{publisher: p, logger: logger.With("module", "notifier"), now: time.Now}
}

func (n *QueueNotifier) Send(ctx context.Context, address, subject, body string) error {
	m, err := newMail(address, subject, body, n.now())
	if err != nil {
		return err
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	if err := n.publisher.Publish(ctx, m.ID, payload); err != nil {
		n.logger.Error(ctx, "mail not queued", "id", m.ID, "subject", subject, "error", err)
		return err
	}

	n.logger.Debug(ctx, "mail queued", "id", m.ID, "subject", subject)
	return nil
}

// LogNotifier writes mail to the log instead of queueing it. Bodies may
// carry secrets and are only logged at debug level.
type LogNotifier struct {
	logger logging.Logger
	now    func() time.Time
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier"), now: time.Now}
}

func (n *LogNotifier) Send(ctx context.Context, address, subject, body string) error {
	m, err := newMail(address, subject, body, n.now())
	if err != nil {
		return err
	}
	n.logger.Info(ctx, "mail", "id", m.ID, "to", m.To, "subject", m.Subject)
	n.logger.Debug(ctx, "mail body", "id", m.ID, "body", m.Body)
	return nil
}
