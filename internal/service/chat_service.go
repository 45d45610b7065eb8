// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"webhook-chat-go/internal/format"
	"webhook-chat-go/internal/model"
	"webhook-chat-go/internal/repository"
	"webhook-chat-go/pkg/events"
	"webhook-chat-go/pkg/log"
	"webhook-chat-go/pkg/webhook"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=./mock_deps_test.go -package=service webhook-chat-go/internal/service AttachmentStore,EventPublisher,Notifier
//go:generate mockgen -destination=./mock_webhook_test.go -package=service webhook-chat-go/pkg/webhook Client
//go:generate mockgen -destination=./mock_repository_test.go -package=service webhook-chat-go/internal/repository HistoryRepository

var (
	ErrWebhookNotConfigured = errors.New("webhook url is not configured")
	ErrRequestInFlight      = errors.New("a webhook request is already in flight")
	ErrWebhookFailed        = errors.New("webhook request failed")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotQuestion          = errors.New("only questions can be resent")
)

// 推送给挂件的事件类型。
const (
	EventLoading        = "loading"
	EventExchange       = "exchange"
	EventHistoryCleared = "history_cleared"
	EventWebhookChanged = "webhook_changed"
)

// HistoryOrder 决定新的一问一答放在历史的哪一端，在一次运行中保持不变。
type HistoryOrder string

const (
	OrderAppend  HistoryOrder = "append"
	OrderPrepend HistoryOrder = "prepend"
)

// ParseHistoryOrder 解析配置中的历史顺序，空值表示 append。
func ParseHistoryOrder(s string) (HistoryOrder, error) {
	switch HistoryOrder(s) {
	case "", OrderAppend:
		return OrderAppend, nil
	case OrderPrepend:
		return OrderPrepend, nil
	}
	return "", fmt.Errorf("unknown history order %q", s)
}

// AttachmentStore 保存上传文件的原始内容，返回可下载的地址。
type AttachmentStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// EventPublisher 发布问答事件。
type EventPublisher interface {
	PublishExchange(ctx context.Context, event events.ExchangeEvent) error
}

// Notifier 向已连接的挂件广播事件。
type Notifier interface {
	Broadcast(eventType string, data interface{})
}

// Outgoing 是一次待发送的消息。
type Outgoing struct {
	Content     string
	MessageType string
	FileName    string
	FileBase64  string
}

// Exchange 是一次成功发送后加入历史的问答对。
type Exchange struct {
	Question      model.ChatMessage `json:"question"`
	Answer        model.ChatMessage `json:"answer"`
	Rendered      format.Rendered   `json:"rendered"`
	AttachmentURL string            `json:"attachmentUrl,omitempty"`
}

// ChatService 定义了聊天会话控制器的接口。
type ChatService interface {
	WebhookURL() string
	SetWebhookURL(url string)
	RequestID() string
	Loading() bool
	SendText(ctx context.Context, content string) (*Exchange, error)
	SendFile(ctx context.Context, fileName string, data []byte, messageType string) (*Exchange, error)
	Send(ctx context.Context, out Outgoing) (*Exchange, error)
	Resend(ctx context.Context, messageID string) (*Exchange, error)
	History() []model.ChatMessage
	CurrentResponse() string
	Response() (string, format.Rendered)
	Rendered() format.Rendered
	Location() *time.Location
	ClearHistory(ctx context.Context)
	Restore(ctx context.Context)
}

// ChatServiceOptions 汇总 ChatService 的依赖。Attachments、Publisher、Notifier 可以为 nil，
// Formatter 为 nil 时使用默认管线和 UTC。
type ChatServiceOptions struct {
	RequestID   string
	WebhookURL  string
	Order       HistoryOrder
	Formatter   *format.Formatter
	Client      webhook.Client
	Repo        repository.HistoryRepository
	Attachments AttachmentStore
	Publisher   EventPublisher
	Notifier    Notifier
	Now         func() time.Time
}

type chatService struct {
	requestID   string
	order       HistoryOrder
	formatter   *format.Formatter
	client      webhook.Client
	repo        repository.HistoryRepository
	attachments AttachmentStore
	publisher   EventPublisher
	notifier    Notifier
	now         func() time.Time

	inFlight atomic.Bool

	// persistMu 保证远端镜像的写入顺序与内存中的修改顺序一致
	persistMu sync.Mutex

	mu         sync.RWMutex
	webhookURL string
	history    []model.ChatMessage
	current    string
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(opts ChatServiceOptions) ChatService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Repo == nil {
		opts.Repo = repository.NewMemoryHistoryRepository()
	}
	if opts.Order == "" {
		opts.Order = OrderAppend
	}
	if opts.Formatter == nil {
		// 空的模式和时区总是合法的
		opts.Formatter, _ = format.NewFormatter("", "")
	}
	return &chatService{
		requestID:   opts.RequestID,
		order:       opts.Order,
		formatter:   opts.Formatter,
		client:      opts.Client,
		repo:        opts.Repo,
		attachments: opts.Attachments,
		publisher:   opts.Publisher,
		notifier:    opts.Notifier,
		now:         opts.Now,
		webhookURL:  strings.TrimSpace(opts.WebhookURL),
		history:     []model.ChatMessage{},
	}
}

func (s *chatService) WebhookURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.webhookURL
}

func (s *chatService) SetWebhookURL(url string) {
	url = strings.TrimSpace(url)
	s.mu.Lock()
	s.webhookURL = url
	s.mu.Unlock()
	s.notify(EventWebhookChanged, map[string]string{"webhookUrl": url})
}

func (s *chatService) RequestID() string {
	return s.requestID
}

func (s *chatService) Loading() bool {
	return s.inFlight.Load()
}

// SendText 发送一条文本消息。
func (s *chatService) SendText(ctx context.Context, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	return s.Send(ctx, Outgoing{Content: content, MessageType: model.MessageTypeText})
}

// SendFile 以 base64 形式发送文件；messageType 为空时根据文件内容推断。
func (s *chatService) SendFile(ctx context.Context, fileName string, data []byte, messageType string) (*Exchange, error) {
	if messageType == "" {
		messageType = DetectMessageType(data)
	}
	log.Infof("Arquivo selecionado: %s, Tipo: %s", fileName, messageType)

	ex, err := s.Send(ctx, Outgoing{
		Content:     "Arquivo enviado: " + fileName,
		MessageType: messageType,
		FileName:    fileName,
		FileBase64:  base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}

	if s.attachments != nil {
		objectName := ex.Question.ID + "/" + fileName
		url, err := s.attachments.Put(context.WithoutCancel(ctx), objectName, data, DetectContentType(data))
		if err != nil {
			log.Errorf("Failed to archive attachment %s: %v", objectName, err)
		} else {
			ex.AttachmentURL = url
		}
	}
	return ex, nil
}

// Send 是唯一的发送路径：校验配置、占用在途标志、调用 webhook 并成对写入历史。
func (s *chatService) Send(ctx context.Context, out Outgoing) (*Exchange, error) {
	url := s.WebhookURL()
	if url == "" {
		return nil, ErrWebhookNotConfigured
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight
	}
	s.notify(EventLoading, map[string]bool{"loading": true})
	defer func() {
		s.inFlight.Store(false)
		s.notify(EventLoading, map[string]bool{"loading": false})
	}()

	log.Infow("Enviando para webhook",
		"requestId", s.requestID,
		"messageType", out.MessageType,
		"fileName", out.FileName,
		"hasFile", out.FileBase64 != "",
	)

	// 请求一旦发出就运行到结束，不跟随调用方取消
	sendCtx := context.WithoutCancel(ctx)
	payload := webhook.Payload{
		RequestID:   s.requestID,
		Content:     out.Content,
		MessageType: out.MessageType,
		Timestamp:   s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		FileName:    out.FileName,
		FileBase64:  out.FileBase64,
	}
	body, err := s.client.Post(sendCtx, url, payload)
	if err != nil {
		log.Error("Erro ao enviar webhook", err)
		return nil, fmt.Errorf("%w: %w", ErrWebhookFailed, err)
	}

	question := model.ChatMessage{
		ID:          newMessageID(),
		Kind:        model.KindQuestion,
		Content:     out.Content,
		MessageType: out.MessageType,
		CreatedAt:   s.now(),
	}
	answer := model.ChatMessage{
		ID:        newMessageID(),
		Kind:      model.KindAnswer,
		Content:   body,
		CreatedAt: s.now(),
	}

	s.persistMu.Lock()
	s.mu.Lock()
	if s.order == OrderPrepend {
		s.history = append([]model.ChatMessage{answer, question}, s.history...)
	} else {
		s.history = append(s.history, question, answer)
	}
	s.current = body
	snapshot := append([]model.ChatMessage(nil), s.history...)
	s.mu.Unlock()

	if err := s.repo.Save(sendCtx, snapshot); err != nil {
		log.Errorf("Failed to save chat history: %v", err)
	}
	s.persistMu.Unlock()

	ex := &Exchange{Question: question, Answer: answer, Rendered: s.formatter.Format(body)}
	s.publish(sendCtx, ex, out.FileName)
	s.notify(EventExchange, ex)
	return ex, nil
}

// Resend 重新发送历史中的一条提问，不携带原文件。
func (s *chatService) Resend(ctx context.Context, messageID string) (*Exchange, error) {
	msg, ok := s.find(messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if !msg.IsQuestion() {
		return nil, ErrNotQuestion
	}
	messageType := msg.MessageType
	if messageType == "" {
		messageType = model.MessageTypeText
	}
	return s.Send(ctx, Outgoing{Content: msg.Content, MessageType: messageType})
}

func (s *chatService) find(id string) (model.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.history {
		if m.ID == id {
			return m, true
		}
	}
	return model.ChatMessage{}, false
}

// History 返回历史记录的副本。
func (s *chatService) History() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ChatMessage{}, s.history...)
}

func (s *chatService) CurrentResponse() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Response 返回最新回答的原始内容及其格式化结果，两者来自同一次读取。
func (s *chatService) Response() (string, format.Rendered) {
	raw := s.CurrentResponse()
	return raw, s.formatter.Format(raw)
}

// Rendered 每次都从最新回答的原始内容重新格式化。
func (s *chatService) Rendered() format.Rendered {
	_, rendered := s.Response()
	return rendered
}

// Location 是时间标签和日期字段的显示时区。
func (s *chatService) Location() *time.Location {
	return s.formatter.Location()
}

// ClearHistory 清空本地历史并删除远端键，远端失败只记录日志。
func (s *chatService) ClearHistory(ctx context.Context) {
	s.persistMu.Lock()
	s.mu.Lock()
	s.history = []model.ChatMessage{}
	s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		log.Errorf("Failed to delete chat history: %v", err)
	}
	s.persistMu.Unlock()
	s.notify(EventHistoryCleared, nil)
}

// Restore 在启动时加载镜像的历史，任何失败都退化为空历史。
func (s *chatService) Restore(ctx context.Context) {
	messages, err := s.repo.Load(ctx)
	if err != nil {
		log.Errorf("Failed to load chat history: %v", err)
		return
	}
	s.mu.Lock()
	s.history = messages
	s.mu.Unlock()
	log.Infof("Restored %d chat messages", len(messages))
}

func (s *chatService) publish(ctx context.Context, ex *Exchange, fileName string) {
	if s.publisher == nil {
		return
	}
	event := events.ExchangeEvent{
		RequestID:   s.requestID,
		QuestionID:  ex.Question.ID,
		AnswerID:    ex.Answer.ID,
		MessageType: ex.Question.MessageType,
		Question:    ex.Question.Content,
		Answer:      ex.Answer.Content,
		FileName:    fileName,
		SentAt:      ex.Question.CreatedAt,
	}
	if err := s.publisher.PublishExchange(ctx, event); err != nil {
		log.Errorf("Failed to publish exchange event: %v", err)
	}
}

func (s *chatService) notify(eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(eventType, data)
	}
}

// newMessageID 生成按时间排序的 UUIDv7。
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
