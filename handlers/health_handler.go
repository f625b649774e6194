package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ecodrive-backend/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	NumCPU       int       `json:"num_cpu"`
	DBStatus     string    `json:"db_status"`
	Redis        string    `json:"redis"`
}

// Version 应用版本，可通过构建参数注入
var Version = "0.1.0"

// HealthHandler serves liveness and status probes
type HealthHandler struct {
	db        *gorm.DB
	redisMode string
	startTime time.Time
}

// NewHealthHandler creates a health handler. redisMode describes how the
// Redis-backed components run ("redis" or "local").
func NewHealthHandler(db *gorm.DB, redisMode string) *HealthHandler {
	return &HealthHandler{db: db, redisMode: redisMode, startTime: time.Now()}
}

// Health 提供基本健康检查端点
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Status 提供详细的系统状态信息
func (h *HealthHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, dbStatus, code := "ok", "ok", http.StatusOK
	if err := database.Ping(ctx, h.db); err != nil {
		status, dbStatus, code = "degraded", "error", http.StatusServiceUnavailable
	}

	c.JSON(code, SystemInfo{
		Status:       status,
		Version:      Version,
		Uptime:       time.Since(h.startTime).String(),
		StartTime:    h.startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     dbStatus,
		Redis:        h.redisMode,
	})
}
