package handlers

import (
	"log/slog"
	"net/http"

	"ecodrive-backend/cache"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 限流中间件. Callers are keyed by user when the identity
// header is present and by client IP otherwise. Limiter failures let the
// request through.
func RateLimitMiddleware(limiter cache.RateLimiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := c.GetHeader(UserIDHeader); userID != "" {
			key = "user:" + userID
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "请求频率过高，请稍后再试",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
