package database

import (
	"context"
	"fmt"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接，供 redis 历史后端使用。
func InitRedis(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	RDB = client
	log.Info("Redis client connected successfully")
	return nil
}

// CloseRedis 关闭全局客户端。
func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			log.Errorf("关闭 Redis 连接失败: %v", err)
		}
	}
}
