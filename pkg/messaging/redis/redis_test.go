package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := zerolog.Nop()
	return NewBrokerWithClient(client, &logger).(*Broker)
}

func TestPublishSubscribe(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := broker.Subscribe(ctx, "backoffice.events")
	require.NoError(t, err)

	// Give the subscriber goroutine time to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	payload := map[string]string{"event_type": "LEAD_CREATED"}
	require.NoError(t, broker.Publish(ctx, "backoffice.events", payload))

	select {
	case raw := <-messages:
		var got map[string]string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "LEAD_CREATED", got["event_type"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := broker.Subscribe(ctx, "backoffice.events")
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-messages:
		assert.False(t, open, "channel closes after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}
