package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/internal/metrics"
	"github.com/beckn-mesh/network/participant"
	"github.com/beckn-mesh/network/pkg/storage"
)

const maxDeliveryAttempts = 3

// backoffSchedule is the bounded exponential backoff between retries
// (§4.7): 1s before attempt 2 and 4s before attempt 3. With
// maxDeliveryAttempts at 3 the 16s entry is never reached.
var backoffSchedule = []time.Duration{time.Second, 4 * time.Second, 16 * time.Second}

// Worker consumes fan-out messages from the broker and delivers each to
// its BPP, re-signed under the Gateway's own domain-bound identity.
type Worker struct {
	conn     *amqp.Connection
	queue    string
	exchange string
	prefetch int
	client   *participant.Client
	txns     storage.TransactionStore
	audit    storage.AuditStore
	log      logger.Logger
}

// NewWorker builds a delivery Worker. client must sign with the
// Gateway's domain-bound identity (participant.Identity.Domain set).
func NewWorker(conn *amqp.Connection, queue, exchange string, prefetch int, client *participant.Client, txns storage.TransactionStore, audit storage.AuditStore, log logger.Logger) *Worker {
	return &Worker{
		conn: conn, queue: queue, exchange: exchange, prefetch: prefetch,
		client: client, txns: txns, audit: audit, log: log,
	}
}

// Run declares and binds the consumer queue and blocks, fanning
// deliveries out across count goroutines, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, count int) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("gateway worker: open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(w.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("gateway worker: declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", w.exchange, false, nil); err != nil {
		return fmt.Errorf("gateway worker: bind queue: %w", err)
	}
	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		return fmt.Errorf("gateway worker: set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("gateway worker: consume: %w", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					w.handleDelivery(ctx, d)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg FanoutMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.log.Error("gateway worker: malformed fan-out message", logger.Error(err))
		_ = d.Nack(false, false)
		return
	}

	reason := "retries-exhausted"
	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		if attempt > 1 {
			metrics.WorkerRetries.WithLabelValues(strconv.Itoa(attempt)).Inc()
			select {
			case <-time.After(backoffSchedule[attempt-2]):
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}

		status, body, err := w.client.PostRaw(ctx, msg.BppURL+"/search", msg.Body)
		if err == nil && status == 200 {
			latencyMs := time.Since(d.Timestamp).Milliseconds()
			if uerr := w.txns.UpdateStatus(ctx, msg.TransactionID, msg.MessageID, storage.TransactionSent, latencyMs); uerr != nil {
				w.log.Warn("gateway worker: transaction latency update failed", logger.Error(uerr))
			}
			_ = d.Ack(false)
			return
		}
		if err == nil && isPermanentPolicyError(body) {
			reason = "policy-error"
			break
		}
		w.log.Warn("gateway worker: delivery attempt failed",
			logger.String("bpp_id", msg.BppID), logger.Int("attempt", attempt), logger.Error(err))
	}

	metrics.DeadLettered.WithLabelValues(reason).Inc()
	if err := w.txns.UpdateStatus(ctx, msg.TransactionID, msg.MessageID, storage.TransactionDeadLettered, 0); err != nil {
		w.log.Warn("gateway worker: transaction dead-letter status update failed", logger.Error(err))
	}
	if err := w.audit.Append(ctx, &storage.AuditEvent{
		SubscriberID: msg.BppID,
		EventType:    storage.AuditGatewayDeadLetter,
		Detail:       fmt.Sprintf("transaction_id=%s reason=%s", msg.TransactionID, reason),
	}); err != nil {
		w.log.Warn("gateway worker: dead-letter audit append failed", logger.Error(err))
	}
	_ = d.Nack(false, false)
}

// isPermanentPolicyError reports whether body is a Nack carrying a
// POLICY-ERROR — a rejection the fan-out should not retry, per §4.7's
// dead-lettering rule.
func isPermanentPolicyError(body []byte) bool {
	var nack beckn.Nack
	if err := json.Unmarshal(body, &nack); err != nil {
		return false
	}
	return nack.Error.Type == beckn.ErrorTypePolicy
}
