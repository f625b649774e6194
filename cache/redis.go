package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecodrive-backend/config"

	"github.com/redis/go-redis/v9"
)

// Connect 初始化Redis连接. It returns ErrRedisNotAvailable when Redis is
// disabled or does not answer, so callers can fall back to in-process
// implementations.
func Connect(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*redis.Client, error) {
	if cfg.Disabled {
		log.Info("redis disabled, using in-process fallbacks")
		return nil, ErrRedisNotAvailable
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
		ReadTimeout: 3 * time.Second,
		PoolSize:    10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		log.Warn("redis unreachable, using in-process fallbacks", "addr", cfg.Addr, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRedisNotAvailable, err)
	}

	log.Info("redis connected", "addr", cfg.Addr)
	return client, nil
}
