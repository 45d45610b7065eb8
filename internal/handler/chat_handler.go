// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"
	"webhook-chat-go/internal/format"
	"webhook-chat-go/internal/model"
	"webhook-chat-go/internal/service"
	"webhook-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 挂件上显示的提示文本。
const (
	msgMissingWebhook = "Por favor, insira a URL do webhook N8N"
	msgWebhookFailed  = "Falha ao enviar para o webhook. Verifique a URL e tente novamente."
	msgSent           = "Mensagem enviada com sucesso!"
	msgFileFailed     = "Falha ao processar o arquivo"
	msgBusy           = "Aguarde a resposta anterior"
	msgEmptyMessage   = "Digite uma mensagem"
	msgNotFound       = "Mensagem não encontrada"
	msgNotQuestion    = "Apenas perguntas podem ser reenviadas"
	msgNoResponse     = "Nenhuma resposta ainda"
	msgNoHistory      = "Nenhuma mensagem no histórico"
)

// ChatHandler 负责聊天会话的 HTTP 接口。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type configRequest struct {
	WebhookURL string `json:"webhookUrl"`
}

type messageRequest struct {
	Content string `json:"content"`
}

// HistoryItem 是历史列表中的一条记录。
type HistoryItem struct {
	model.ChatMessage
	Preview string `json:"preview"`
	Time    string `json:"time"`
}

// ResponseView 是当前回答的展示数据。
type ResponseView struct {
	Raw         string          `json:"raw"`
	Text        string          `json:"text"`
	HTML        string          `json:"html"`
	Document    format.Document `json:"document"`
	Placeholder string          `json:"placeholder,omitempty"`
}

// GetConfig 返回当前的 webhook 配置。
func (h *ChatHandler) GetConfig(c *gin.Context) {
	ok(c, "success", gin.H{
		"webhookUrl": h.chatService.WebhookURL(),
		"requestId":  h.chatService.RequestID(),
	})
}

// UpdateConfig 修改 webhook URL，空值表示清除。
func (h *ChatHandler) UpdateConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.chatService.SetWebhookURL(req.WebhookURL)
	ok(c, "success", gin.H{"webhookUrl": h.chatService.WebhookURL()})
}

// SendMessage 发送一条文本消息。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	ex, err := h.chatService.SendText(c.Request.Context(), req.Content)
	if err != nil {
		h.sendFailed(c, err)
		return
	}
	ok(c, msgSent, ex)
}

// SendFile 处理 multipart 上传，字段 file 为文件，messageType 可选。
func (h *ChatHandler) SendFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, msgFileFailed)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		log.Error("Erro ao abrir arquivo", err)
		fail(c, http.StatusBadRequest, msgFileFailed)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		log.Error("Erro ao converter arquivo para base64", err)
		fail(c, http.StatusBadRequest, msgFileFailed)
		return
	}

	ex, err := h.chatService.SendFile(c.Request.Context(), fileHeader.Filename, data, c.PostForm("messageType"))
	if err != nil {
		h.sendFailed(c, err)
		return
	}
	ok(c, msgSent, ex)
}

// Resend 重新发送历史中的一条提问。
func (h *ChatHandler) Resend(c *gin.Context) {
	ex, err := h.chatService.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendFailed(c, err)
		return
	}
	ok(c, msgSent, ex)
}

// GetResponse 返回最新回答的原始内容与格式化结果。
func (h *ChatHandler) GetResponse(c *gin.Context) {
	raw, rendered := h.chatService.Response()
	view := ResponseView{Raw: raw, Text: rendered.Text, HTML: rendered.HTML, Document: rendered.Document}
	if raw == "" {
		view.Placeholder = msgNoResponse
	}
	ok(c, "success", view)
}

// GetHistory 返回带预览文本的历史列表。
func (h *ChatHandler) GetHistory(c *gin.Context) {
	history := h.chatService.History()
	items := make([]HistoryItem, 0, len(history))
	for _, m := range history {
		items = append(items, HistoryItem{
			ChatMessage: m,
			Preview:     m.Preview(model.PreviewLength),
			Time:        m.TimeLabel(h.chatService.Location()),
		})
	}
	data := gin.H{"items": items}
	if len(items) == 0 {
		data["placeholder"] = msgNoHistory
	}
	ok(c, "success", data)
}

// ClearHistory 清空历史记录。
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	h.chatService.ClearHistory(c.Request.Context())
	ok(c, "success", nil)
}

// GetStatus 返回在途状态，挂件据此禁用发送按钮。
func (h *ChatHandler) GetStatus(c *gin.Context) {
	ok(c, "success", gin.H{
		"loading":           h.chatService.Loading(),
		"webhookConfigured": h.chatService.WebhookURL() != "",
	})
}

func (h *ChatHandler) sendFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWebhookNotConfigured):
		fail(c, http.StatusBadRequest, msgMissingWebhook)
	case errors.Is(err, service.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, msgEmptyMessage)
	case errors.Is(err, service.ErrRequestInFlight):
		fail(c, http.StatusConflict, msgBusy)
	case errors.Is(err, service.ErrMessageNotFound):
		fail(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrNotQuestion):
		fail(c, http.StatusBadRequest, msgNotQuestion)
	case errors.Is(err, service.ErrWebhookFailed):
		fail(c, http.StatusBadGateway, msgWebhookFailed)
	default:
		log.Errorf("处理发送请求失败: %v", err)
		fail(c, http.StatusInternalServerError, msgWebhookFailed)
	}
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}
