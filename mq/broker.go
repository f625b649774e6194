// Package mq carries poll events between the service and its listeners:
// websocket watchers, other instances and the notification collaborator.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 事件类型
const (
	EventPollCreated = "poll.created"
	EventPollTally   = "poll.tally"
	EventPollClosed  = "poll.closed"
	EventAreaAlert   = "area.alert"
)

// Event is one message on the broker
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	PollID    uint            `json:"poll_id,omitempty"`
	Region    string          `json:"region,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event with a fresh ID, encoding payload as JSON
func NewEvent(typ string, pollID uint, region string, payload any, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("序列化消息失败: %w", err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		PollID:    pollID,
		Region:    region,
		Payload:   raw,
		Timestamp: now,
	}, nil
}

// Handler consumes events. Handlers run on the delivering goroutine and must
// not block for long.
type Handler func(Event)

// Broker publishes events and delivers them to subscribed handlers
type Broker interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(h Handler)
	// Run delivers events until ctx is cancelled
	Run(ctx context.Context) error
}

// handlers is the subscriber list shared by the broker implementations
type handlers struct {
	mu   sync.RWMutex
	list []Handler
}

func (h *handlers) add(fn Handler) {
	h.mu.Lock()
	h.list = append(h.list, fn)
	h.mu.Unlock()
}

func (h *handlers) dispatch(e Event) {
	h.mu.RLock()
	list := h.list
	h.mu.RUnlock()
	for _, fn := range list {
		fn(e)
	}
}
