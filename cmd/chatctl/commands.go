package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"webhook-chat-go/internal/config"
	"webhook-chat-go/internal/format"
	"webhook-chat-go/internal/model"
	"webhook-chat-go/internal/repository"
	"webhook-chat-go/internal/service"
	"webhook-chat-go/pkg/events"
	"webhook-chat-go/pkg/kafka"
	"webhook-chat-go/pkg/log"
	"webhook-chat-go/pkg/webhook"

	"github.com/spf13/cobra"
)

// app 是一次命令执行所需的依赖。
type app struct {
	cfg       config.Config
	formatter *format.Formatter
	chat      service.ChatService
}

func loadConfig() (config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); err != nil {
		// 配置文件不存在时只使用默认值和环境变量
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if webhookURL != "" {
		cfg.Webhook.URL = webhookURL
	}
	// stdout 留给回答本身
	log.InitStderr(cfg.Log.Level)
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	formatter, err := format.NewFormatter(cfg.Format.LabelBreak, cfg.Format.Timezone)
	if err != nil {
		return nil, err
	}
	order, err := service.ParseHistoryOrder(cfg.History.Order)
	if err != nil {
		return nil, err
	}
	repo, err := repository.NewHistoryRepositoryFromConfig(cfg)
	if err != nil {
		log.Errorf("历史后端不可用，历史记录仅保存在内存中: %v", err)
		repo = repository.NewMemoryHistoryRepository()
	}

	chat := service.NewChatService(service.ChatServiceOptions{
		RequestID:  cfg.Webhook.RequestID,
		WebhookURL: cfg.Webhook.URL,
		Order:      order,
		Formatter:  formatter,
		Client:     webhook.NewClient(nil),
		Repo:       repo,
	})
	chat.Restore(ctx)
	return &app{cfg: cfg, formatter: formatter, chat: chat}, nil
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <text>",
		Short: "Send a text message and print the formatted answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			ex, err := a.chat.SendText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ex.Rendered.Document.Text())
			return nil
		},
	}
}

func fileCmd() *cobra.Command {
	var messageType string
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Send a file as base64 (type is inferred unless --type is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			ex, err := a.chat.SendFile(cmd.Context(), filepath.Base(args[0]), data, messageType)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ex.Rendered.Document.Text())
			return nil
		},
	}
	cmd.Flags().StringVarP(&messageType, "type", "t", "", "message type: Imagem, Documento or Audio")
	return cmd
}

func formatCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "format [file|-]",
		Short: "Format a raw webhook response read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			formatter, err := format.NewFormatter(cfg.Format.LabelBreak, cfg.Format.Timezone)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			rendered := formatter.Format(raw)
			if asHTML {
				fmt.Fprintln(cmd.OutOrStdout(), rendered.HTML)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered.Document.Text())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the HTML fragment instead of text")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the mirrored chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), a.chat.History(), a.formatter)
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the chat history and its remote mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			a.chat.ClearHistory(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Histórico limpo")
			return nil
		},
	}
}

func eventsCmd() *cobra.Command {
	var groupID string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow exchange events published to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Kafka.Brokers == "" {
				return fmt.Errorf("kafka.brokers is not configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return kafka.ConsumeExchanges(ctx, cfg.Kafka, groupID, func(_ context.Context, e events.ExchangeEvent) error {
				fmt.Fprintf(out, "[%s] %s (%s) -> %s\n",
					e.SentAt.Format("2006-01-02 15:04:05"),
					model.ChatMessage{Content: e.Question}.Preview(model.PreviewLength),
					e.MessageType,
					model.ChatMessage{Content: e.Answer}.Preview(model.PreviewLength))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "chatctl", "kafka consumer group")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(b), nil
}

func printHistory(w io.Writer, history []model.ChatMessage, formatter *format.Formatter) {
	if len(history) == 0 {
		fmt.Fprintln(w, "Nenhuma mensagem no histórico")
		return
	}
	for _, m := range history {
		who := "Resposta"
		if m.IsQuestion() {
			who = "Pergunta (" + m.MessageType + ")"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.TimeLabel(formatter.Location()), who, m.Preview(model.PreviewLength))
	}
}
