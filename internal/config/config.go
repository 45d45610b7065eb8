// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Format  FormatConfig  `mapstructure:"format"`
	History HistoryConfig `mapstructure:"history"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// WebhookConfig 存储外发 webhook 的配置。URL 可在运行时通过 API 修改。
type WebhookConfig struct {
	URL       string `mapstructure:"url"`
	RequestID string `mapstructure:"request_id"`
}

// FormatConfig 控制响应格式化管线。
type FormatConfig struct {
	// LabelBreak: after_bold | before_bold | off
	LabelBreak string `mapstructure:"label_break"`
	Timezone   string `mapstructure:"timezone"`
}

// HistoryConfig 存储历史记录镜像的配置。
type HistoryConfig struct {
	// Backend: memory | redis | http
	Backend string `mapstructure:"backend"`
	Key     string `mapstructure:"key"`
	// Order: append | prepend
	Order string            `mapstructure:"order"`
	TTL   time.Duration     `mapstructure:"ttl"`
	HTTP  HistoryHTTPConfig `mapstructure:"http"`
}

// HistoryHTTPConfig 是 HTTP 命令信封式键值存储的地址与库号。
type HistoryHTTPConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// SetDefaults 注册所有配置项的默认值，保证空配置文件也能启动。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.request_id", "n8n-webhook-chat-001")
	v.SetDefault("format.label_break", "after_bold")
	v.SetDefault("format.timezone", "America/Sao_Paulo")
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.key", "chat_history")
	v.SetDefault("history.order", "append")
	v.SetDefault("history.ttl", time.Duration(0))
	v.SetDefault("history.http.addr", "")
	v.SetDefault("history.http.db", 0)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	// viper 只会把已知键映射到环境变量，因此这里把可选组件的键也注册上
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "chat-exchanges")
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_name", "chat-attachments")
}

// Load 从指定路径读取 YAML 文件，叠加 CHAT_ 前缀的环境变量后解析为 Config。
// configPath 为空时只使用默认值和环境变量。
func Load(configPath string) (Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return cfg, nil
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
