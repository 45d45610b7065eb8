// Package main 是命令行客户端 chatctl 的入口，直接与 webhook 交互并在终端展示格式化后的回答。
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	webhookURL string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatctl",
		Short:        "Terminal client for the N8N webhook chat",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to config.yaml")
	root.PersistentFlags().StringVarP(&webhookURL, "webhook", "w", "", "webhook URL (overrides webhook.url)")

	root.AddCommand(sendCmd())
	root.AddCommand(fileCmd())
	root.AddCommand(formatCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(clearCmd())
	root.AddCommand(eventsCmd())
	return root
}
