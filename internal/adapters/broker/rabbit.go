// Package broker publishes accepted quotes to RabbitMQ.
package broker

import (
	"context"
	"delivery-quote-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	AcceptedRoutingKey = "delivery.quote.accepted"
	reconnectDelay     = 3 * time.Second
)

// QuoteBroker publishes accepted delivery drafts to a durable topic exchange
// and reconnects in the background when the connection drops.
type QuoteBroker struct {
	log      logrus.FieldLogger
	url      string
	exchange string

	mu        sync.RWMutex
	conn      *amqp091.Connection
	ch        *amqp091.Channel
	connClose chan *amqp091.Error
	isClosed  atomic.Bool
}

func NewQuoteBroker(url, exchange string, log logrus.FieldLogger) (*QuoteBroker, error) {
	b := &QuoteBroker{
		log:      log,
		url:      url,
		exchange: exchange,
	}

	if err := b.createChannel(); err != nil {
		return nil, fmt.Errorf("rabbit: connect: %w", err)
	}

	go b.reconnectConn()
	return b, nil
}

func (b *QuoteBroker) createChannel() error {
	conn, err := amqp091.Dial(b.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return errors.Join(conn.Close(), err)
	}

	err = ch.ExchangeDeclare(
		b.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return errors.Join(conn.Close(), err)
	}

	connClose := make(chan *amqp091.Error, 1)
	conn.NotifyClose(connClose)

	b.mu.Lock()
	b.conn = conn
	b.ch = ch
	b.connClose = connClose
	b.mu.Unlock()
	return nil
}

func (b *QuoteBroker) reconnectConn() {
	for {
		b.mu.RLock()
		closed := b.connClose
		b.mu.RUnlock()

		<-closed
		if b.isClosed.Load() {
			return
		}
		b.log.Warn("rabbitmq connection lost")

		for {
			if b.isClosed.Load() {
				return
			}
			b.log.Info("trying to connect to rabbitmq")
			if err := b.createChannel(); err != nil {
				time.Sleep(reconnectDelay)
				continue
			}
			b.log.Info("connected to rabbitmq")
			break
		}
	}
}

// PublishAccepted sends the draft as JSON with AcceptedRoutingKey.
func (b *QuoteBroker) PublishAccepted(ctx context.Context, draft domain.DeliveryDraft) error {
	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("rabbit: marshal draft: %w", err)
	}

	b.mu.RLock()
	ch := b.ch
	b.mu.RUnlock()

	err = ch.PublishWithContext(ctx,
		b.exchange,
		AcceptedRoutingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbit: publish %s: %w", AcceptedRoutingKey, err)
	}
	return nil
}

func (b *QuoteBroker) Close() error {
	b.isClosed.Store(true)
	defer b.log.Info("rabbit closed")

	b.mu.RLock()
	conn := b.conn
	b.mu.RUnlock()
	return conn.Close()
}

// NoopPublisher logs accepted drafts instead of publishing them.
type NoopPublisher struct {
	Log logrus.FieldLogger
}

func (p NoopPublisher) PublishAccepted(_ context.Context, draft domain.DeliveryDraft) error {
	p.Log.WithFields(logrus.Fields{
		"origin":      draft.Origin,
		"destination": draft.Destination,
		"value":       draft.Value,
	}).Debug("no broker configured, accepted quote not published")
	return nil
}
