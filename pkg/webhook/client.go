// Package webhook provides the outbound client for the chat webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Payload 是发送给 webhook 的 JSON 请求体。
type Payload struct {
	RequestID   string `json:"requestId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	Timestamp   string `json:"timestamp"`
	FileName    string `json:"fileName,omitempty"`
	FileBase64  string `json:"fileBase64,omitempty"`
}

// StatusError is returned when the webhook answers outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned non-2xx status: %d, body: %s", e.StatusCode, e.Body)
}

// Client defines the interface for a webhook client.
type Client interface {
	// Post 发送 payload 并以原始文本形式返回响应体。
	Post(ctx context.Context, url string, payload Payload) (string, error)
}

type httpClient struct {
	client *http.Client
}

// NewClient 创建一个 webhook 客户端。hc 为 nil 时使用不设超时的 http.Client。
func NewClient(hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &httpClient{client: hc}
}

func (c *httpClient) Post(ctx context.Context, url string, payload Payload) (string, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
