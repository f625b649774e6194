package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时
	pongWait = 60 * time.Second

	// 发送ping间隔时间，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 512
)

// ErrPollNotFound is returned by a PollChecker for unknown polls
var ErrPollNotFound = errors.New("poll not found")

// PollChecker verifies that a poll exists before a client subscribes to it
type PollChecker func(ctx context.Context, pollID uint) error

// Handler WebSocket处理器
type Handler struct {
	hub      *Hub
	check    PollChecker
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler 创建WebSocket处理器. checkOrigin may be nil to accept any origin.
func NewHandler(hub *Hub, check PollChecker, checkOrigin func(r *http.Request) bool, log *slog.Logger) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:   hub,
		check: check,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// Serve 处理WebSocket连接请求
func (h *Handler) Serve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll id", "code": "validation"})
		return
	}
	pollID := uint(id)

	if h.check != nil {
		if err := h.check(c.Request.Context(), pollID); err != nil {
			if errors.Is(err, ErrPollNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "poll not found", "code": "not_found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load poll", "code": "internal"})
			return
		}
	}

	// 升级HTTP连接为WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		PollID: pollID,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
	if !h.hub.RegisterClient(client) {
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump 从WebSocket连接读取消息. Clients only listen; anything they send
// is discarded.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.UnregisterClient(client)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read failed", "poll_id", client.PollID, "error", err)
			}
			return
		}
	}
}

// writePump 向WebSocket连接发送消息, one frame per message
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
