package pubsub

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_PreservesPublishOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	var mu sync.Mutex
	var received []string
	require.NoError(t, bridge.Subscribe(ctx, "sys_utterance", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(msg.Payload))
		return nil
	}))

	const count = 50
	want := make([]string, 0, count)
	for i := 0; i < count; i++ {
		payload := strconv.Itoa(i)
		want = append(want, payload)
		require.NoError(t, bridge.Publish(ctx, Message{Topic: "sys_utterance", UserID: "u", Payload: []byte(payload)}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == count
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, received)
}

func TestBridge_PublishWithoutSubscribers(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	done := make(chan error, 1)
	go func() {
		done <- bridge.Publish(context.Background(), Message{Topic: "nobody_listens", UserID: "u", Payload: []byte(`1`)})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish blocked without subscribers")
	}
}
