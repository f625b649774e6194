package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecodrive-backend/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the caller identity set by the auth gateway
	UserIDHeader = "X-User-ID"

	// RequestIDHeader is echoed back on every response
	RequestIDHeader = "X-Request-ID"

	userIDKey    = "userID"
	requestIDKey = "requestID"
)

// Identity reads the caller from UserIDHeader and rejects anonymous requests
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		id, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "missing or invalid " + UserIDHeader + " header",
				Code:  "unauthenticated",
			})
			return
		}
		c.Set(userIDKey, uint(id))
		c.Next()
	}
}

func currentUser(c *gin.Context) uint {
	id, _ := c.Get(userIDKey)
	uid, _ := id.(uint)
	return uid
}

// RequestID 为每个请求分配唯一ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one access log line per request
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// RequestMetrics counts requests per route template and status
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Request(route, strconv.Itoa(c.Writer.Status()))
	}
}
