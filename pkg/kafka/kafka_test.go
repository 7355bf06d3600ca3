package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestEvent_RoundTrip(t *testing.T) {
	type payload struct {
		ISBN string `json:"isbn"`
	}

	event, err := NewEvent("marketplace.catalog.created", "9780132350884", "book", "catalog-service", payload{ISBN: "9780132350884"})
	require.NoError(t, err)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, 1, event.Version)

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, event.EventType, decoded.EventType)

	var p payload
	require.NoError(t, decoded.UnmarshalData(&p))
	assert.Equal(t, "9780132350884", p.ISBN)
}

func TestUnmarshalEvent_Malformed(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{{nope"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "marketplace.catalog.created", Topic("catalog", "created"))
	assert.Equal(t, "marketplace.dlq.marketplace.catalog.created", DLQTopic("marketplace.catalog.created"))
}

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "evt-1"))

	ok, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Nanosecond)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-1"))
	time.Sleep(time.Millisecond)

	ok, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisIdempotencyStore(client, "ingest:seen:", time.Hour)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "evt-9")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Add(ctx, "evt-9"))

	ok, err = store.Contains(ctx, "evt-9")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists("ingest:seen:evt-9"))
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	handler := IdempotentHandler(store, "test-group", func(ctx context.Context, event *Event) error {
		calls++
		return nil
	}, testLogger())

	event, err := NewEvent("marketplace.catalog.created", "x", "book", "test", nil)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailedEventNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	handler := IdempotentHandler(store, "test-group", func(ctx context.Context, event *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, testLogger())

	event, err := NewEvent("marketplace.catalog.created", "x", "book", "test", nil)
	require.NoError(t, err)

	require.Error(t, handler(context.Background(), event))
	// The retry should be processed, not deduplicated.
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	assert.Error(t, err)
}

func TestConsumer_StartReturnsAndClosesOnCancel(t *testing.T) {
	consumer := NewConsumer(ConsumerConfig{
		Brokers: []string{"127.0.0.1:1"},
		GroupID: "test-group",
		Topics:  []string{Topic("catalog", "created"), Topic("inventory", "stock_changed")},
	}, func(ctx context.Context, event *Event) error {
		return nil
	}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	// The reader was closed on the way out; closing again is a no-op.
	assert.NoError(t, consumer.Close())
}
