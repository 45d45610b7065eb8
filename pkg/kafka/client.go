// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/pkg/events"
	"webhook-chat-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Producer 把问答事件写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokerList(cfg.Brokers)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	log.Infof("Kafka 生产者初始化成功，主题 '%s'", cfg.Topic)
	return &Producer{writer: w}
}

// PublishExchange 以请求 ID 为 key 发送一条问答事件。
func (p *Producer) PublishExchange(ctx context.Context, event events.ExchangeEvent) error {
	value, err := encodeExchange(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: value,
	})
}

// Close 刷新并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ExchangeHandler 处理消费到的问答事件。
type ExchangeHandler func(ctx context.Context, event events.ExchangeEvent) error

// ConsumeExchanges 启动一个消费者，直到 ctx 结束。无法解析的消息会被提交并跳过。
func ConsumeExchanges(ctx context.Context, cfg config.KafkaConfig, groupID string, handle ExchangeHandler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("从 Kafka 读取消息失败: %w", err)
		}

		event, err := decodeExchange(m.Value)
		if err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		} else if err := handle(ctx, event); err != nil {
			// 处理失败时不提交 offset，交给下一次消费
			log.Errorf("处理问答事件失败: question=%s, error: %v", event.QuestionID, err)
			continue
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

func encodeExchange(event events.ExchangeEvent) ([]byte, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange event: %w", err)
	}
	return b, nil
}

func decodeExchange(value []byte) (events.ExchangeEvent, error) {
	var event events.ExchangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return events.ExchangeEvent{}, err
	}
	if event.QuestionID == "" {
		return events.ExchangeEvent{}, errors.New("exchange event without question_id")
	}
	return event, nil
}

// brokerList 支持逗号分隔的多个 broker。
func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
