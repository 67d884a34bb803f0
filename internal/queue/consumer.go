// Package queue contains the background consumer that listens for
// purchase-completed events and runs ticket issuance. The consumer declares
// a durable queue, acknowledges deliveries it processed, and rejects
// malformed or failed ones without requeueing to avoid tight redelivery
// loops. Issuance is idempotent, so a redelivered event converges on the
// same stored tickets.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-ticket-backend/internal/config"
	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/repo"
	"github.com/tbourn/go-ticket-backend/internal/services"
)

// PurchaseIssuer is the slice of the issuer the consumer needs. The
// purchase subsystem never holds a global registry; it is wired in here by
// plain dependency injection.
type PurchaseIssuer interface {
	IssueForPurchase(ctx context.Context, p domain.Purchase) ([]domain.Ticket, []services.LineItemError, error)
}

// Consumer subscribes to the purchase-completed queue and, per delivery,
// snapshots the purchase and mints its tickets.
type Consumer struct {
	Cfg    config.AMQPConfig
	DB     *gorm.DB
	Issuer PurchaseIssuer
	Log    zerolog.Logger
}

// maxBackoff bounds the reconnect delay after repeated broker failures.
const maxBackoff = 30 * time.Second

// nextBackoff doubles the reconnect delay up to maxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// Run connects to the broker, declares the durable queue, and consumes
// until ctx is cancelled. Connection failures trigger reconnects with
// exponential backoff (capped at maxBackoff).
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := amqp.Dial(c.Cfg.URL)
		if err != nil {
			c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("broker dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn().Err(err).Msg("consume loop ended; reconnecting")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn().Err(err).Msg("set QoS failed")
	}

	if _, err := ch.QueueDeclare(c.Cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.Cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleDelivery(ctx, d.Body); err != nil {
				c.Log.Error().Err(err).Msg("handle delivery failed")
				_ = d.Nack(false, false) // reject, do not requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleDelivery processes one purchase-completed event body: it records
// the purchase snapshot for later joins, then mints tickets for its
// eligible line items. Per-line-item failures are logged but do not fail
// the delivery; the healthy siblings are already stored and a redelivery
// would converge on the same state.
func (c *Consumer) handleDelivery(ctx context.Context, body []byte) error {
	var ev PurchaseCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	p := ev.Purchase()
	if !p.Completed() {
		return fmt.Errorf("purchase %s has status %q, want %q", p.ID, p.Status, domain.PurchaseStatusCompleted)
	}
	if err := repo.UpsertPurchase(ctx, c.DB, &p); err != nil {
		return fmt.Errorf("record purchase %s: %w", p.ID, err)
	}

	minted, failures, err := c.Issuer.IssueForPurchase(ctx, p)
	if err != nil {
		return fmt.Errorf("issue for purchase %s: %w", p.ID, err)
	}
	for _, f := range failures {
		c.Log.Error().
			Str("purchase_id", p.ID).
			Str("line_item_id", f.LineItemID).
			Err(f.Err).
			Msg("line item issuance failed")
	}
	c.Log.Info().
		Str("purchase_id", p.ID).
		Int("minted", len(minted)).
		Int("failed", len(failures)).
		Msg("purchase completed processed")
	return nil
}
