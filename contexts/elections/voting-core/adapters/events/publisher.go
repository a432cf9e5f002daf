package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/application"
	"github.com/Yunusinusah/offline-voting/contexts/elections/voting-core/ports"
	"github.com/Yunusinusah/offline-voting/internal/platform/messaging"
	sharedevents "github.com/Yunusinusah/offline-voting/internal/shared/events"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	payloadVersion = 1

	// DefaultQueueSize bounds the envelopes waiting for the transport.
	DefaultQueueSize = 256
	deliveryTimeout  = 5 * time.Second
)

var (
	ErrQueueFull       = errors.New("notification queue is full")
	ErrPublisherClosed = errors.New("notification publisher is closed")
)

type queuedEnvelope struct {
	topic    string
	envelope sharedevents.Envelope
}

// Publisher wraps voting-core notifications in the shared envelope and queues
// them for a background sender. Publish never waits on the transport, so a
// slow or unreachable broker cannot hold up a ballot or a clock pass.
type Publisher struct {
	target messaging.Publisher
	source string
	clock  ports.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEnvelope
	done   chan struct{}
}

func NewPublisher(target messaging.Publisher, source string, clock ports.Clock, logger *slog.Logger) *Publisher {
	return newPublisher(target, source, clock, logger, DefaultQueueSize)
}

func newPublisher(target messaging.Publisher, source string, clock ports.Clock, logger *slog.Logger, queueSize int) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		source = "voting-core"
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Publisher{
		target: target,
		source: source,
		clock:  clock,
		logger: logger,
		queue:  make(chan queuedEnvelope, queueSize),
		done:   make(chan struct{}),
	}
	go p.drain()
	return p
}

// Publish enqueues the envelope and returns. A full queue drops the event.
func (p *Publisher) Publish(_ context.Context, event string, payload map[string]any) error {
	if p.target == nil {
		return nil
	}
	envelope := p.Envelope(event, payload)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- queuedEnvelope{topic: event, envelope: envelope}:
		return nil
	default:
		p.logger.Warn("voting notification dropped",
			"event", "voting_core_notification_dropped",
			"module", "elections/voting-core",
			"layer", "adapter",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"queue_size", cap(p.queue),
		)
		return ErrQueueFull
	}
}

// Close stops accepting notifications and waits for queued ones to be sent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}

func (p *Publisher) drain() {
	defer close(p.done)
	for item := range p.queue {
		p.deliver(item)
	}
}

func (p *Publisher) deliver(item queuedEnvelope) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := p.target.Publish(ctx, item.topic, item.envelope); err != nil {
		p.logger.Warn("voting notification delivery failed",
			"event", "voting_core_notification_failed",
			"module", "elections/voting-core",
			"layer", "adapter",
			"event_id", item.envelope.EventID,
			"event_type", item.envelope.EventType,
			"entity_id", item.envelope.EntityID,
			"error", err.Error(),
		)
		return
	}

	p.logger.Debug("voting notification published",
		"event", "voting_core_notification_published",
		"module", "elections/voting-core",
		"layer", "adapter",
		"event_id", item.envelope.EventID,
		"event_type", item.envelope.EventType,
		"entity_id", item.envelope.EntityID,
	)
}

// Envelope builds the transport shape for a notification. Every event is keyed
// by its election so a partitioned transport keeps per-election order.
func (p *Publisher) Envelope(event string, payload map[string]any) sharedevents.Envelope {
	now := p.now()
	electionID, _ := payload["electionId"].(string)
	return sharedevents.Envelope{
		EventID:        uuid.NewString(),
		EventType:      event,
		SourceService:  p.source,
		OccurredAtUTC:  now,
		EntityType:     "election",
		EntityID:       electionID,
		PayloadVersion: payloadVersion,
		Summary:        summarize(event, payload, now),
		Payload:        payload,
	}
}

func summarize(event string, payload map[string]any, now time.Time) string {
	title, _ := payload["title"].(string)
	switch event {
	case application.EventVoteCast:
		return "ballot recorded"
	case application.EventElectionStarted:
		return fmt.Sprintf("election %q opened", title)
	case application.EventElectionEnded:
		return fmt.Sprintf("election %q closed", title)
	case application.EventElectionTick:
		remaining, ok := payload["remainingMs"].(int64)
		if !ok {
			return "voting open, no closing time"
		}
		end := now.Add(time.Duration(remaining) * time.Millisecond)
		return "voting closes " + humanize.RelTime(end, now, "ago", "from now")
	default:
		return event
	}
}

func (p *Publisher) now() time.Time {
	if p.clock != nil {
		return p.clock.Now().UTC()
	}
	return time.Now().UTC()
}

var _ ports.NotificationBus = (*Publisher)(nil)
