package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockEvent_JSON(t *testing.T) {
	event := &RestockEvent{
		Type:     "restock",
		Brand:    "Ippodo",
		Products: []RestockProduct{{Name: "Ummon", URL: "https://ippodo-tea.co.jp/ummon"}},
		Notified: 3,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "detected_at")
	assert.NotContains(t, raw, "user_ids")
}

func TestPublisherSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *RestockEvent, 1)
	go func() {
		_ = subscriber.Subscribe(ctx, func(e *RestockEvent) {
			received <- e
		})
	}()

	// 等待订阅建立
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("")) > 0
	}, 2*time.Second, 10*time.Millisecond)

	err := publisher.PublishRestock(ctx, &RestockEvent{
		Brand:    "Marukyu Koyamaen",
		Products: []RestockProduct{{Name: "Wako"}},
		Notified: 2,
		UserIDs:  []int64{1, 2},
	})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, "restock", e.Type)
		assert.Equal(t, "Marukyu Koyamaen", e.Brand)
		assert.Equal(t, []int64{1, 2}, e.UserIDs)
		assert.False(t, e.DetectedAt.IsZero())
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestSubscriber_StopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(client).Subscribe(ctx, func(*RestockEvent) {})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
