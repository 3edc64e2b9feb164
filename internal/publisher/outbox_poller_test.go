package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/printshop/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockEventStore struct {
	m         sync.Mutex
	events    []*domain.OutboxEvent
	processed []int64
	getErr    error
	markErr   error
}

func (s *mockEventStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []*domain.OutboxEvent
	for _, e := range s.events {
		if !s.isProcessed(e.ID) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *mockEventStore) MarkEventAsProcessed(_ context.Context, id int64) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.processed = append(s.processed, id)
	return nil
}

func (s *mockEventStore) isProcessed(id int64) bool {
	for _, p := range s.processed {
		if p == id {
			return true
		}
	}
	return false
}

func (s *mockEventStore) processedIDs() []int64 {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]int64(nil), s.processed...)
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	failures int // number of upcoming writes that fail
	calls    int
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return fmt.Errorf("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
	return nil
}

func orderEvent(id int64, orderID string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:          id,
		AggregateID: orderID,
		EventType:   domain.EventTypeOrderPlaced,
		Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%q}`, orderID)),
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	store := &mockEventStore{events: []*domain.OutboxEvent{orderEvent(1, "order-1"), orderEvent(2, "order-2")}}
	writer := &mockWriter{}
	poller := NewOutboxPoller(store, writer, time.Second, nil)

	poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, []int64{1, 2}, store.processedIDs())
	require.Len(t, writer.messages, 2)
	msg := writer.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, domain.EventTypeOrderPlaced, string(msg.Headers[0].Value))
}

func TestProcessUnpublishedEvents_FailedPublishIsRetriedNextTick(t *testing.T) {
	store := &mockEventStore{events: []*domain.OutboxEvent{orderEvent(1, "order-1")}}
	writer := &mockWriter{failures: 1}
	poller := NewOutboxPoller(store, writer, time.Second, nil)

	poller.processUnpublishedEvents(context.Background())
	assert.Empty(t, store.processedIDs())

	poller.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{1}, store.processedIDs())
}

func TestProcessUnpublishedEvents_StoreError(t *testing.T) {
	store := &mockEventStore{getErr: errors.New("database connection error")}
	writer := &mockWriter{}
	poller := NewOutboxPoller(store, writer, time.Second, nil)

	poller.processUnpublishedEvents(context.Background())
	assert.Zero(t, writer.calls)
}

func TestProcessUnpublishedEvents_MarkErrorLeavesEventPending(t *testing.T) {
	store := &mockEventStore{events: []*domain.OutboxEvent{orderEvent(1, "order-1")}, markErr: errors.New("database error")}
	writer := &mockWriter{}
	poller := NewOutboxPoller(store, writer, time.Second, nil)

	poller.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.messages, 1)
	assert.Empty(t, store.processedIDs())
}

func TestProcessUnpublishedEvents_BreakerOpensOnBrokerOutage(t *testing.T) {
	var events []*domain.OutboxEvent
	for i := int64(1); i <= 10; i++ {
		events = append(events, orderEvent(i, fmt.Sprintf("order-%d", i)))
	}
	store := &mockEventStore{events: events}
	writer := &mockWriter{failures: 100}
	poller := NewOutboxPoller(store, writer, time.Second, nil)

	poller.processUnpublishedEvents(context.Background())

	assert.Equal(t, 5, writer.calls, "breaker stops writes after five consecutive failures")
	assert.Empty(t, store.processedIDs())
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &mockEventStore{events: []*domain.OutboxEvent{orderEvent(1, "order-1")}}
	writer := &mockWriter{}
	poller := NewOutboxPoller(store, writer, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(store.processedIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	require.NoError(t, poller.Close())
	assert.True(t, writer.closed)
}

func TestNewKafkaWriter_DefaultTopic(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "")
	defer w.Close()

	assert.Equal(t, DefaultTopic, w.Topic)
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Kafka integration test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	defer func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}()

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	store := &mockEventStore{events: []*domain.OutboxEvent{orderEvent(1, "order-123")}}
	writer := NewKafkaWriter(brokers, "printshop-orders-test")
	poller := NewOutboxPoller(store, writer, 500*time.Millisecond, nil)
	defer poller.Close()

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	go poller.Run(runCtx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		Topic:    "printshop-orders-test",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-123", payload["order_id"])

	require.Eventually(t, func() bool {
		return len(store.processedIDs()) == 1
	}, 10*time.Second, 100*time.Millisecond)
}
