package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelRestockEvents = "restock_events"
)

// RestockProduct 补货商品
type RestockProduct struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// RestockEvent is broadcast after a brand's subscribers have been notified.
type RestockEvent struct {
	Type       string           `json:"type"`
	Brand      string           `json:"brand"`
	Products   []RestockProduct `json:"products"`
	Notified   int              `json:"notified"`
	UserIDs    []int64          `json:"user_ids,omitempty"`
	DetectedAt time.Time        `json:"detected_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishRestock 发布补货事件
func (p *Publisher) PublishRestock(ctx context.Context, event *RestockEvent) error {
	event.Type = "restock"
	if event.DetectedAt.IsZero() {
		event.DetectedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal restock event: %w", err)
	}

	return p.client.Publish(ctx, ChannelRestockEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅补货事件，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*RestockEvent)) error {
	ps := s.client.Subscribe(ctx, ChannelRestockEvents)
	defer ps.Close()

	// 等待订阅确认，避免丢失紧随其后的消息
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChannelRestockEvents, err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event RestockEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
