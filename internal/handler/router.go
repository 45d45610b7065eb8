package handler

import (
	"net/http"
	"webhook-chat-go/internal/middleware"
	"webhook-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// NewRouter 创建路由引擎并注册聊天接口。ws 为 nil 时不注册 /ws。
func NewRouter(chatService service.ChatService, ws http.Handler) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	h := NewChatHandler(chatService)
	chat := r.Group("/api/v1/chat")
	{
		chat.GET("/config", h.GetConfig)
		chat.PUT("/config", h.UpdateConfig)
		chat.POST("/messages", h.SendMessage)
		chat.POST("/messages/:id/resend", h.Resend)
		chat.POST("/files", h.SendFile)
		chat.GET("/response", h.GetResponse)
		chat.GET("/history", h.GetHistory)
		chat.DELETE("/history", h.ClearHistory)
		chat.GET("/status", h.GetStatus)
		if ws != nil {
			chat.GET("/ws", gin.WrapH(ws))
		}
	}
	return r
}
