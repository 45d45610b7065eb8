// Package events defines the structures that are published to Kafka.
package events

import "time"

// ExchangeEvent 描述一次成功的 webhook 问答往返。
type ExchangeEvent struct {
	RequestID   string    `json:"request_id"`
	QuestionID  string    `json:"question_id"`
	AnswerID    string    `json:"answer_id"`
	MessageType string    `json:"message_type"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	FileName    string    `json:"file_name,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}
