package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AuditConsumer binds a durable queue to the claim exchange and appends
// every event to <Dir>/booking.log in a single-line, human-friendly format.
type AuditConsumer struct {
	URL      string
	Exchange string
	Queue    string
	Dir      string
	Log      logrus.FieldLogger
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker goes away.  Offending messages are rejected
// without requeue so the consumer keeps going.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			a.Log.WithError(err).Warnf("booking-consumer: failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.Log.WithError(err).Warn("booking-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.Log.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if err := ch.ExchangeDeclare(a.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(a.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(a.Queue, "#", a.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(a.Queue, "", false, false, false, false, nil)
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
			if err := a.handle(d.Body); err != nil {
				a.Log.WithError(err).Warn("booking-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (a *AuditConsumer) handle(body []byte) error {
	var ev ClaimEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(a.Dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one audit log line, newline included.
func FormatLine(ev ClaimEvent) string {
	line := fmt.Sprintf("[%s] %s %s | claim_id=%d | resource_id=%d | actor_id=%d | status=%s",
		ev.OccurredAt, ev.Kind, ev.Action, ev.ClaimID, ev.ResourceID, ev.ActorID, ev.Status)
	if ev.FromStatus != "" {
		line += " | from=" + ev.FromStatus
	}
	if ev.HolderID != nil {
		line += fmt.Sprintf(" | holder_id=%d", *ev.HolderID)
	}
	if ev.StartsAt != "" {
		line += fmt.Sprintf(" | window=%s..%s | total=%d cents", ev.StartsAt, ev.EndsAt, ev.TotalPriceCents)
	}
	if ev.Pax > 0 {
		line += fmt.Sprintf(" | pax=%d", ev.Pax)
	}
	return line + "\n"
}
