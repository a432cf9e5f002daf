package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Yunusinusah/offline-voting/internal/shared/events"
)

func TestBusDeliversTopicAndWildcardSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(nil)
	topicEvents := make(chan events.Envelope, 1)
	allEvents := make(chan events.Envelope, 2)
	bus.Subscribe(ctx, "vote_cast", "test-topic", func(_ context.Context, event events.Envelope) error {
		topicEvents <- event
		return nil
	})
	bus.Subscribe(ctx, AllTopics, "test-all", func(_ context.Context, event events.Envelope) error {
		allEvents <- event
		return nil
	})

	if err := bus.Publish(ctx, "vote_cast", events.Envelope{EventID: "evt-1", EventType: "vote_cast"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.Publish(ctx, "election_tick", events.Envelope{EventID: "evt-2", EventType: "election_tick"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-topicEvents:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1 on topic subscriber, got %s", event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatalf("topic subscriber received nothing")
	}
	for i := 0; i < 2; i++ {
		select {
		case <-allEvents:
		case <-time.After(time.Second):
			t.Fatalf("wildcard subscriber missed event %d", i+1)
		}
	}
	select {
	case event := <-topicEvents:
		t.Fatalf("topic subscriber got unrelated event %s", event.EventID)
	default:
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, events.Envelope) error {
	f.calls++
	return errors.New("broker down")
}

type countingPublisher struct{ calls int }

func (c *countingPublisher) Publish(context.Context, string, events.Envelope) error {
	c.calls++
	return nil
}

func TestFanoutKeepsDeliveringAfterFailure(t *testing.T) {
	failing := &failingPublisher{}
	counting := &countingPublisher{}
	err := Fanout{failing, nil, counting}.Publish(context.Background(), "vote_cast", events.Envelope{})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if failing.calls != 1 || counting.calls != 1 {
		t.Fatalf("expected both publishers called once, got %d and %d", failing.calls, counting.calls)
	}
}

func TestKafkaMessageKeysByEntity(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg, err := kafkaMessage("evote.", "election_started", events.Envelope{
		EventID:       "evt-1",
		EventType:     "election_started",
		EntityType:    "election",
		EntityID:      "election-1",
		OccurredAtUTC: occurred,
		Payload:       map[string]any{"electionId": "election-1"},
	})
	if err != nil {
		t.Fatalf("build message failed: %v", err)
	}
	if msg.Topic != "evote.election_started" {
		t.Fatalf("unexpected topic %s", msg.Topic)
	}
	if string(msg.Key) != "election-1" {
		t.Fatalf("unexpected key %s", msg.Key)
	}
	var decoded events.Envelope
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode value failed: %v", err)
	}
	if decoded.EventID != "evt-1" || !decoded.OccurredAtUTC.Equal(occurred) {
		t.Fatalf("unexpected envelope %+v", decoded)
	}
}

func TestNewKafkaPublisherRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "evote."); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestKafkaPublisherWritesOnce(t *testing.T) {
	publisher, err := NewKafkaPublisher([]string{"localhost:9092"}, "evote.")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer publisher.Close()
	if publisher.writer.MaxAttempts != 1 || publisher.writer.Async {
		t.Fatalf("expected one synchronous attempt, got attempts=%d async=%v", publisher.writer.MaxAttempts, publisher.writer.Async)
	}
}

func TestNewRedisPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewRedisPublisher(context.Background(), "not-a-redis-url", "evote."); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}
