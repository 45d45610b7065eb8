// Package main 是应用程序的入口点。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/internal/format"
	"webhook-chat-go/internal/handler"
	"webhook-chat-go/internal/realtime"
	"webhook-chat-go/internal/repository"
	"webhook-chat-go/internal/service"
	"webhook-chat-go/pkg/database"
	"webhook-chat-go/pkg/kafka"
	"webhook-chat-go/pkg/log"
	"webhook-chat-go/pkg/storage"
	"webhook-chat-go/pkg/webhook"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化格式化管线
	formatter, err := format.NewFormatter(cfg.Format.LabelBreak, cfg.Format.Timezone)
	if err != nil {
		log.Fatal("格式化管线初始化失败", err)
	}
	order, err := service.ParseHistoryOrder(cfg.History.Order)
	if err != nil {
		log.Fatalf("历史顺序配置无效: %v", err)
	}

	// 4. 初始化历史记录镜像
	historyRepo, err := repository.NewHistoryRepositoryFromConfig(cfg)
	if err != nil {
		log.Errorf("历史后端不可用，历史记录仅保存在内存中: %v", err)
		historyRepo = repository.NewMemoryHistoryRepository()
	}

	// 5. 可选组件：Kafka 事件与 MinIO 附件归档
	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
	}
	var attachments service.AttachmentStore
	if cfg.MinIO.Enabled {
		store, err := storage.NewMinIOStore(context.Background(), cfg.MinIO)
		if err != nil {
			log.Errorf("MinIO 不可用，附件不归档: %v", err)
		} else {
			attachments = store
		}
	}

	// 6. 初始化 Service
	hub := realtime.NewHub()
	chatService := service.NewChatService(service.ChatServiceOptions{
		RequestID:   cfg.Webhook.RequestID,
		WebhookURL:  cfg.Webhook.URL,
		Order:       order,
		Formatter:   formatter,
		Client:      webhook.NewClient(nil),
		Repo:        historyRepo,
		Attachments: attachments,
		Publisher:   publisher,
		Notifier:    hub,
	})

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
	chatService.Restore(restoreCtx)
	cancelRestore()

	// 7. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(chatService, hub)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	database.CloseRedis()
	log.Info("服务已优雅关闭")
}
