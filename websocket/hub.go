// Package websocket streams live poll tallies to connected browsers
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ecodrive-backend/mq"

	"github.com/gorilla/websocket"
)

// Client 代表一个WebSocket连接客户端
type Client struct {
	// 连接的投票ID
	PollID uint

	conn *websocket.Conn

	// 消息发送通道
	send chan []byte
}

// Hub 维护活跃的客户端集合并向客户端广播消息
type Hub struct {
	// 已注册的客户端，按投票ID分组
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// 互斥锁保护clients map
	mu  sync.RWMutex
	log *slog.Logger
}

// NewHub 创建一个新的Hub
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run 启动Hub消息处理循环 until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for pollID, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
				delete(h.clients, pollID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.PollID]; !ok {
				h.clients[client.PollID] = make(map[*Client]bool)
			}
			h.clients[client.PollID][client] = true
			n := len(h.clients[client.PollID])
			h.mu.Unlock()
			h.log.Debug("websocket client registered", "poll_id", client.PollID, "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// remove drops a client and closes its send channel. Caller holds mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.PollID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.PollID)
	}
}

// BroadcastToPoll 向特定投票的所有连接客户端广播消息. Clients whose buffer
// is full are disconnected.
func (h *Hub) BroadcastToPoll(pollID uint, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[pollID] {
		select {
		case client.send <- payload:
		default:
			h.remove(client)
		}
	}
}

// HandleEvent forwards poll events from the broker to the poll's watchers
func (h *Hub) HandleEvent(e mq.Event) {
	if e.PollID == 0 {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Warn("failed to encode event", "error", err)
		return
	}
	h.BroadcastToPoll(e.PollID, payload)
}

// ClientCount returns the number of clients watching a poll
func (h *Hub) ClientCount(pollID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[pollID])
}

// RegisterClient 注册客户端到Hub. It reports false once the hub stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient 从Hub中注销客户端
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
