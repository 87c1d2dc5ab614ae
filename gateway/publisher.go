package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/internal/metrics"
)

const publishConfirmTimeout = 5 * time.Second

// FanoutMessage is the payload carried on the broker from the search
// handler to a delivery worker: enough to re-sign and POST the search
// body to one BPP target.
type FanoutMessage struct {
	BppID         string `json:"bpp_id"`
	BppURL        string `json:"bpp_url"`
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
	Body          []byte `json:"body"`
}

// Publisher multicasts search requests onto the durable fan-out
// exchange, one confirm-mode publish per target so a single broker
// hiccup doesn't drop the whole fan-out.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	log      logger.Logger
}

// NewPublisher declares the durable fan-out exchange and puts the
// channel into confirm mode.
func NewPublisher(conn *amqp.Connection, exchange string, log logger.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, exchange: exchange, log: log}, nil
}

// Publish sends one fan-out message and blocks until the broker
// confirms or rejects it.
func (p *Publisher) Publish(ctx context.Context, msg FanoutMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	confirms := p.ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	if err := p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	}); err != nil {
		metrics.PublishAttempts.WithLabelValues("error").Inc()
		return err
	}

	select {
	case confirm := <-confirms:
		if confirm.Ack {
			metrics.PublishAttempts.WithLabelValues("confirmed").Inc()
			return nil
		}
		metrics.PublishAttempts.WithLabelValues("nacked").Inc()
		return errors.New("gateway: publish nacked by broker")
	case <-time.After(publishConfirmTimeout):
		metrics.PublishAttempts.WithLabelValues("error").Inc()
		return errors.New("gateway: publish confirmation timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAll publishes msgs independently, logging (but not aborting
// on) individual failures, and returns the count that were confirmed.
func (p *Publisher) PublishAll(ctx context.Context, msgs []FanoutMessage) int {
	confirmed := 0
	for _, msg := range msgs {
		if err := p.Publish(ctx, msg); err != nil {
			p.log.Warn("fan-out publish failed",
				logger.String("bpp_id", msg.BppID), logger.Error(err))
			continue
		}
		confirmed++
	}
	return confirmed
}
