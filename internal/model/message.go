// Package model 包含了应用的数据模型定义。
package model

import (
	"time"
	"unicode/utf8"
)

// MessageKind 区分提问与回答。
type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
)

// 提问消息的类型标签，与挂件上的按钮一一对应。
const (
	MessageTypeText     = "Texto"
	MessageTypeImage    = "Imagem"
	MessageTypeDocument = "Documento"
	MessageTypeAudio    = "Audio"
)

// PreviewLength 是历史列表中消息预览的最大字符数。
const PreviewLength = 80

// ChatMessage 代表历史记录中的单条消息，创建后不再修改。
type ChatMessage struct {
	ID      string      `json:"id"`
	Kind    MessageKind `json:"type"`
	Content string      `json:"content"`
	// MessageType 只在提问消息上出现
	MessageType string    `json:"messageType,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`
}

// IsQuestion 报告消息是否为提问。
func (m ChatMessage) IsQuestion() bool {
	return m.Kind == KindQuestion
}

// Preview 截断内容用于历史列表展示，超长时追加 "..."。
func (m ChatMessage) Preview(maxLength int) string {
	if utf8.RuneCountInString(m.Content) <= maxLength {
		return m.Content
	}
	runes := []rune(m.Content)
	return string(runes[:maxLength]) + "..."
}

// TimeLabel 返回 HH:MM 形式的时间标签。
func (m ChatMessage) TimeLabel(loc *time.Location) string {
	t := m.CreatedAt
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04")
}
