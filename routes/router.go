package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ecodrive-backend/cache"
	"ecodrive-backend/config"
	"ecodrive-backend/handlers"
	"ecodrive-backend/metrics"
	"ecodrive-backend/service"
	"ecodrive-backend/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer is built from
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Polls     *service.PollService
	Locations *service.LocationService
	Live      *websocket.Handler
	Limiter   cache.RateLimiter
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	RedisMode string
	Logger    *slog.Logger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.UserIDHeader, handlers.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", handlers.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// SetupRouter 设置和配置Gin路由
func SetupRouter(d Dependencies) *gin.Engine {
	if !d.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.RequestLogger(d.Logger))
	router.Use(handlers.RequestMetrics(d.Metrics))
	router.Use(cors.New(corsConfig(d.Config.Server.AllowOrigins)))

	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	health := handlers.NewHealthHandler(d.DB, d.RedisMode)
	pollHandler := handlers.NewPollHandler(d.Polls, d.Locations, d.Logger)
	locationHandler := handlers.NewLocationHandler(d.Locations, d.Logger)

	api := router.Group("/api")
	{
		// 健康检查
		api.GET("/health", health.Health)
		api.GET("/status", health.Status)

		api.Use(handlers.RateLimitMiddleware(d.Limiter, d.Logger))

		locations := api.Group("/locations")
		{
			locations.GET("", locationHandler.List)
			locations.POST("", locationHandler.Create)
			locations.GET("/priority", locationHandler.Priority)
		}

		polls := api.Group("/polls")
		{
			polls.GET("/highest-priority-region", pollHandler.HighestPriorityRegion)
			if d.Live != nil {
				// browsers cannot set headers on websocket upgrades
				polls.GET("/:id/ws", d.Live.Serve)
			}

			identified := polls.Group("", handlers.Identity())
			identified.POST("/generate", pollHandler.Generate)
			identified.GET("/active", pollHandler.Active)
			identified.GET("/weekend-drive", pollHandler.WeekendDrive)
			identified.GET("/:id", pollHandler.Get)
			identified.POST("/:id/vote", pollHandler.Vote)
			identified.POST("/:id/close", pollHandler.Close)
		}
	}

	return router
}

// Server 是HTTP服务器的封装
type Server struct {
	*http.Server
	log *slog.Logger
}

// NewServer binds the router to the configured port
func NewServer(cfg config.ServerConfig, router http.Handler, log *slog.Logger) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// shutdownTimeout
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
