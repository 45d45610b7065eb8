package repository

import (
	"context"
	"testing"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryRepositoryFromConfig(t *testing.T) {
	repo, err := NewHistoryRepositoryFromConfig(config.Config{})
	require.NoError(t, err)
	assert.IsType(t, memoryHistoryRepository{}, repo)

	_, err = NewHistoryRepositoryFromConfig(config.Config{History: config.HistoryConfig{Backend: "http"}})
	assert.Error(t, err)

	repo, err = NewHistoryRepositoryFromConfig(config.Config{History: config.HistoryConfig{
		Backend: "http",
		HTTP:    config.HistoryHTTPConfig{Addr: "http://kv.test"},
	}})
	require.NoError(t, err)
	assert.IsType(t, &kvHistoryRepository{}, repo)

	_, err = NewHistoryRepositoryFromConfig(config.Config{History: config.HistoryConfig{Backend: "mysql"}})
	assert.ErrorContains(t, err, "unknown history backend")
}

func TestNewHistoryRepositoryFromConfig_Redis(t *testing.T) {
	s := miniredis.RunT(t)
	t.Cleanup(database.CloseRedis)

	repo, err := NewHistoryRepositoryFromConfig(config.Config{
		History: config.HistoryConfig{Backend: "redis", Key: "chat_history"},
		Redis:   config.RedisConfig{Addr: s.Addr()},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), sampleHistory()))
	assert.True(t, s.Exists("chat_history"))
}
