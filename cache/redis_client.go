package cache

import "github.com/redis/go-redis/v9"

// RedisClient 定义限流器使用的Redis客户端接口
type RedisClient interface {
	redis.Scripter
}
