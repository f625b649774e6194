package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel events travel on
const DefaultChannel = "ecodrive:events"

// RedisBroker 基于Redis发布订阅的事件总线. Every instance subscribed to the
// channel receives every event, including its own.
type RedisBroker struct {
	handlers
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisBroker(client *redis.Client, channel string, log *slog.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, channel: channel, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(h Handler) {
	b.add(h)
}

// Run 启动消费者 and blocks until ctx is cancelled
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("订阅频道失败: %w", err)
	}
	b.log.Info("event subscriber started", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Warn("解析消息数据失败", "error", err)
				continue
			}
			b.dispatch(e)
		}
	}
}
