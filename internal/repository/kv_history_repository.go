package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"webhook-chat-go/internal/model"
)

// kvCommand 是键值存储 HTTP 接口的命令信封。
type kvCommand struct {
	Command string  `json:"command"`
	Key     string  `json:"key"`
	Value   *string `json:"value,omitempty"`
	DB      int     `json:"db"`
}

type kvResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

type kvHistoryRepository struct {
	addr   string
	key    string
	db     int
	client *http.Client
}

// NewKVHistoryRepository 创建一个通过 HTTP 命令信封访问键值存储的 HistoryRepository。
// 每个操作都是一次对 addr 的 POST。
func NewKVHistoryRepository(addr, key string, db int, client *http.Client) HistoryRepository {
	if client == nil {
		client = &http.Client{}
	}
	return &kvHistoryRepository{addr: addr, key: key, db: db, client: client}
}

func (r *kvHistoryRepository) Load(ctx context.Context) ([]model.ChatMessage, error) {
	result, err := r.do(ctx, kvCommand{Command: "GET", Key: r.key, DB: r.db})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return []model.ChatMessage{}, nil
	}
	var blob string
	if err := json.Unmarshal(result, &blob); err != nil {
		return nil, fmt.Errorf("unexpected GET result from kv store: %w", err)
	}
	return decodeHistory(blob)
}

func (r *kvHistoryRepository) Save(ctx context.Context, messages []model.ChatMessage) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	value := string(jsonData)
	_, err = r.do(ctx, kvCommand{Command: "SET", Key: r.key, Value: &value, DB: r.db})
	return err
}

func (r *kvHistoryRepository) Delete(ctx context.Context) error {
	_, err := r.do(ctx, kvCommand{Command: "DEL", Key: r.key, DB: r.db})
	return err
}

func (r *kvHistoryRepository) do(ctx context.Context, cmd kvCommand) (json.RawMessage, error) {
	reqBytes, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kv command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.addr, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create kv request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call kv store: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read kv response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("kv store %s returned status %d: %s", cmd.Command, resp.StatusCode, string(body))
	}

	var kr kvResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kv response: %w", err)
	}
	if kr.Error != "" {
		return nil, fmt.Errorf("kv store %s failed: %s", cmd.Command, kr.Error)
	}
	return kr.Result, nil
}
