package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func headerMap(msg kafka.Message) map[string]string {
	m := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "planto.cart.updated", Topic("cart", "updated"))
}

func TestNewEvent(t *testing.T) {
	type cartData struct {
		TotalQty int `json:"totalQty"`
	}
	ev, err := NewEvent("cart.updated", "user-1", "cart", "planto-api", cartData{TotalQty: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "user-1", ev.AggregateID)
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, 2*time.Second)

	var got cartData
	require.NoError(t, ev.UnmarshalData(&got))
	assert.Equal(t, 3, got.TotalQty)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("cart.updated", "user-1", "cart", "planto-api", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart.updated")
}

func TestEvent_MarshalUnmarshal(t *testing.T) {
	ev, err := NewEvent("plant.created", "p-1", "plant", "planto-api", map[string]string{"name": "Calathea"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-9").WithMetadata("actor", "seed")

	raw, err := ev.Marshal()
	require.NoError(t, err)
	back, err := UnmarshalEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, ev.EventID, back.EventID)
	assert.Equal(t, "corr-9", back.CorrelationID)
	assert.Equal(t, "seed", back.Metadata["actor"])
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, []string{"localhost:9092"}, testLogger())

	ev, err := NewEvent("favorites.updated", "user-1", "favorites", "planto-api", map[string]any{"count": 1})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), Topic("favorites", "updated"), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "planto.favorites.updated", msg.Topic)
	assert.Equal(t, "user-1", string(msg.Key))
	headers := headerMap(msg)
	assert.Equal(t, "favorites.updated", headers["event_type"])
	assert.Equal(t, "planto-api", headers["source"])
	assert.Equal(t, "corr-1", headers["correlation_id"])
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())
	ev, err := NewEvent("cart.cleared", "user-2", "cart", "planto-api", struct{}{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, Topic("cart", "cleared"), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headerMap(w.msgs[0])["traceparent"])
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, testLogger())
	ev, err := NewEvent("cart.updated", "user-3", "cart", "planto-api", struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("cart", "updated"), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to planto.cart.updated")
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, testLogger())
	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "source", Value: []byte("planto-api")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "planto-api", c.Get("source"))
	assert.Equal(t, "", c.Get("missing"))

	c.Set("source", "seed")
	c.Set("traceparent", "00-abc")
	assert.Equal(t, "seed", c.Get("source"))
	assert.ElementsMatch(t, []string{"source", "traceparent"}, c.Keys())
	assert.Len(t, headers, 2)
}
