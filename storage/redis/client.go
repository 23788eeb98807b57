package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"CareCompanion/config"
	pkgredis "CareCompanion/pkg/redis"
)

const defaultPrefix = "care"

var (
	client *redis.Client
	once   sync.Once
	err    error
)

func Init() error {
	once.Do(func() {
		cfg := config.Cfg

		client = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 5,
			MaxRetries:   3,
		})
		client.AddHook(pkgredis.NewTracingHook(cfg.ServiceName, cfg.RedisDB))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err = client.Ping(ctx).Err()
	})

	return err
}

func Client() *redis.Client {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

// SetClient 替换全局客户端，供测试注入 miniredis 等实现
func SetClient(c *redis.Client) {
	client = c
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}

	return client.Close()
}

// Key 拼接带前缀的 key，空片段会被跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(":")
		sb.WriteString(part)
	}

	return sb.String()
}
