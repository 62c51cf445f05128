package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository/memory"
	"github.com/medagenda/scheduling-api/pkg/event"
	"github.com/medagenda/scheduling-api/pkg/logger"
	"github.com/medagenda/scheduling-api/pkg/metrics"
)

type stubBroker struct {
	published [][]byte
	failures  int
}

func (b *stubBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, message.(json.RawMessage))
	return nil
}

func (b *stubBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBroker) Close() error { return nil }

func fixtureEvent(t *testing.T) *model.OutboxEvent {
	t.Helper()
	apt := &model.Appointment{}
	evt, err := event.NewOutboxEvent(event.TypeAppointmentBooked, apt)
	require.NoError(t, err)
	return evt
}

func newProcessor(store *memory.Store, broker *stubBroker) *OutboxProcessor {
	quiet := logger.NewLogger(&logger.Config{Output: io.Discard})
	m := metrics.NewMetricsWith(prometheus.NewRegistry(), "test", "worker")
	return NewOutboxProcessor(store.Outbox(), broker, OutboxProcessorConfig{
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, quiet, m)
}

func seedPending(t *testing.T, store *memory.Store) *model.OutboxEvent {
	t.Helper()
	evt := fixtureEvent(t)
	require.NoError(t, store.Appointments().Insert(context.Background(), &model.Appointment{}, evt))
	return evt
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	store := memory.NewStore()
	evt := seedPending(t, store)
	broker := &stubBroker{}

	p := newProcessor(store, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.JSONEq(t, string(evt.Payload), string(broker.published[0]))

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusProcessed, events[0].Status)
	assert.NotNil(t, events[0].ProcessedAt)
}

func TestProcessEventsRetriesTransientFailure(t *testing.T) {
	store := memory.NewStore()
	seedPending(t, store)
	broker := &stubBroker{failures: 1}

	p := newProcessor(store, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, model.OutboxStatusProcessed, store.OutboxEvents()[0].Status)
}

func TestProcessEventsMarksFailedAfterRetriesExhausted(t *testing.T) {
	store := memory.NewStore()
	seedPending(t, store)
	broker := &stubBroker{failures: 10}

	p := newProcessor(store, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, broker.published)
	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusFailed, events[0].Status)
	require.NotNil(t, events[0].ErrorMessage)
	assert.Equal(t, "broker unavailable", *events[0].ErrorMessage)
}
