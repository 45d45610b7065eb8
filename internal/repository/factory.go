package repository

import (
	"fmt"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/pkg/database"
)

// NewHistoryRepositoryFromConfig 按 history.backend 选择历史后端：memory、redis 或 http。
func NewHistoryRepositoryFromConfig(cfg config.Config) (HistoryRepository, error) {
	switch cfg.History.Backend {
	case "", "memory":
		return NewMemoryHistoryRepository(), nil
	case "redis":
		if err := database.InitRedis(cfg.Redis); err != nil {
			return nil, err
		}
		return NewRedisHistoryRepository(database.RDB, cfg.History.Key, cfg.History.TTL), nil
	case "http":
		if cfg.History.HTTP.Addr == "" {
			return nil, fmt.Errorf("history.http.addr is required for the http backend")
		}
		return NewKVHistoryRepository(cfg.History.HTTP.Addr, cfg.History.Key, cfg.History.HTTP.DB, nil), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}
