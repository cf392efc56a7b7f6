package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/queue"
)

// Notifier receives lifecycle events after their transaction committed.
// Implementations must not block the caller for long and must not fail
// the request: the claim is already durable.
type Notifier interface {
	Notify(ctx context.Context, ev queue.ClaimEvent)
}

// Publisher is the broker side of a PublishNotifier (queue.Publisher).
type Publisher interface {
	Publish(ctx context.Context, ev queue.ClaimEvent) error
}

// PublishNotifier hands events to a background worker that publishes them
// one at a time.  When the buffer is full the event is dropped and logged.
type PublishNotifier struct {
	pub     Publisher
	log     logrus.FieldLogger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	events chan queue.ClaimEvent
	done   chan struct{}
}

// NewPublishNotifier starts the worker.  Call Close to drain it.
func NewPublishNotifier(pub Publisher, buffer int, log logrus.FieldLogger) *PublishNotifier {
	if buffer <= 0 {
		buffer = 256
	}
	n := &PublishNotifier{
		pub:     pub,
		log:     log,
		timeout: 5 * time.Second,
		events:  make(chan queue.ClaimEvent, buffer),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *PublishNotifier) run() {
	defer close(n.done)
	for ev := range n.events {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		if err := n.pub.Publish(ctx, ev); err != nil {
			n.log.WithError(err).WithFields(logrus.Fields{
				"kind":     ev.Kind,
				"claim_id": ev.ClaimID,
			}).Warn("lifecycle event not published")
		}
		cancel()
	}
}

func (n *PublishNotifier) Notify(_ context.Context, ev queue.ClaimEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.events <- ev:
	default:
		n.log.WithField("claim_id", ev.ClaimID).Warn("lifecycle event buffer full; dropping event")
	}
}

// Close stops accepting events and waits for the buffered ones to go out.
func (n *PublishNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.events)
	n.mu.Unlock()
	<-n.done
}
