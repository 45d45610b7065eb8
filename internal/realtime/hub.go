// Package realtime 通过 WebSocket 把会话事件推送给已连接的挂件。
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
	"webhook-chat-go/pkg/log"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

const writeWait = 10 * time.Second

// Event 是推送给挂件的一条消息。
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub 管理所有 WebSocket 连接。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub 创建一个空的 Hub。
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Count 返回当前连接数。
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 把事件发给所有连接，写失败的连接会被移除。
func (h *Hub) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Errorf("Failed to marshal %s event: %v", eventType, err)
		return
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(payload); err != nil {
			log.Warnf("推送事件失败，关闭连接 %s: %v", id, err)
			h.remove(id)
		}
	}
}

// ServeHTTP 升级连接并保持读循环直到对端断开。挂件只接收事件，收到的消息会被丢弃。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}

	id := fmt.Sprintf("%s-%p", r.RemoteAddr, conn)
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	log.Infof("WebSocket 连接已建立: %s", id)

	_ = c.write(mustMarshal(Event{Type: "connected", Timestamp: time.Now().UnixMilli()}))

	defer h.remove(id)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}
	}
}

// Close 断开所有连接。
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, id)
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
		log.Infof("WebSocket 连接已关闭: %s", id)
	}
}

func mustMarshal(e Event) []byte {
	b, _ := json.Marshal(e)
	return b
}
