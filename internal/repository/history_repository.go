// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"webhook-chat-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// HistoryRepository 定义了聊天历史镜像的操作接口。
// 整个历史以一个 JSON 块存放在单个键下，后写者覆盖先写者。
type HistoryRepository interface {
	Load(ctx context.Context) ([]model.ChatMessage, error)
	Save(ctx context.Context, messages []model.ChatMessage) error
	Delete(ctx context.Context) error
}

type redisHistoryRepository struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
}

// NewRedisHistoryRepository 创建一个基于 Redis 的 HistoryRepository。ttl 为 0 表示不过期。
func NewRedisHistoryRepository(redisClient *redis.Client, key string, ttl time.Duration) HistoryRepository {
	return &redisHistoryRepository{redisClient: redisClient, key: key, ttl: ttl}
}

// Load 从 Redis 获取历史记录，键不存在时返回空列表。
func (r *redisHistoryRepository) Load(ctx context.Context) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return decodeHistory(jsonData)
}

// Save 覆盖写入整个历史记录。
func (r *redisHistoryRepository) Save(ctx context.Context, messages []model.ChatMessage) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	if err := r.redisClient.Set(ctx, r.key, jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set chat history: %w", err)
	}
	return nil
}

// Delete 删除历史记录键。
func (r *redisHistoryRepository) Delete(ctx context.Context) error {
	if err := r.redisClient.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}

func decodeHistory(jsonData string) ([]model.ChatMessage, error) {
	if jsonData == "" {
		return []model.ChatMessage{}, nil
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	return messages, nil
}

type memoryHistoryRepository struct{}

// NewMemoryHistoryRepository 返回一个不做远端镜像的 HistoryRepository，历史只保存在进程内。
func NewMemoryHistoryRepository() HistoryRepository {
	return memoryHistoryRepository{}
}

func (memoryHistoryRepository) Load(context.Context) ([]model.ChatMessage, error) {
	return []model.ChatMessage{}, nil
}

func (memoryHistoryRepository) Save(context.Context, []model.ChatMessage) error { return nil }

func (memoryHistoryRepository) Delete(context.Context) error { return nil }
