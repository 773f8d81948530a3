package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ReplyMode 决定重叠提交的应答方式。
type ReplyMode string

const (
	// ReplyConcurrent arms one independent timer per submission.
	ReplyConcurrent ReplyMode = "concurrent"
	// ReplySerial queues submissions and answers them one at a time.
	ReplySerial ReplyMode = "serial"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Assistant  AssistantConfig
	AI         AIConfig
	Session    SessionConfig
	Catalog    CatalogConfig
	Transcript TranscriptConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port           string  `env:"PORT" envDefault:"8080"`
	AllowedOrigin  string  `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// Addr is derived from Port by Load.
	Addr string `env:"-"`
}

// LogConfig 控制 zerolog 输出。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AssistantConfig 描述助手会话配置。
type AssistantConfig struct {
	ReplyDelay time.Duration `env:"ASSISTANT_REPLY_DELAY" envDefault:"600ms"`
	ReplyMode  ReplyMode     `env:"ASSISTANT_REPLY_MODE" envDefault:"concurrent"`
	RulesPath  string        `env:"ASSISTANT_RULES_PATH"`
	AITimeout  time.Duration `env:"ASSISTANT_AI_TIMEOUT" envDefault:"15s"`
}

// SessionConfig 描述会话注册表配置。
type SessionConfig struct {
	IdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
}

// CatalogConfig 指向可选的 YAML 课程目录。
type CatalogConfig struct {
	Path string `env:"COURSE_CATALOG_PATH"`
}

// TranscriptConfig 指向可选的 SQLite 对话存档。
type TranscriptConfig struct {
	DBPath string `env:"TRANSCRIPT_DB_PATH"`
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey    string `env:"ARK_API_KEY"`
	AccessKey string `env:"ARK_ACCESS_KEY"`
	SecretKey string `env:"ARK_SECRET_KEY"`
	Model     string `env:"ARK_MODEL"`
	BaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	// 可选采样参数，未设置时为 nil。
	Temperature *float64 `env:"ARK_TEMPERATURE"`
	MaxTokens   *int     `env:"ARK_MAX_TOKENS"`
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Assistant.validate(); err != nil {
		return nil, err
	}
	if cfg.Session.IdleTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL value %q: must be positive", cfg.Session.IdleTTL)
	}
	if cfg.Server.RateLimitRPS <= 0 || cfg.Server.RateLimitBurst < 1 {
		return nil, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	cfg.AI.APIKey = strings.TrimSpace(cfg.AI.APIKey)
	cfg.AI.Model = strings.TrimSpace(cfg.AI.Model)

	return &cfg, nil
}

// normalizeAddr 允许传入 "8080"、":8080" 或 "127.0.0.1:8080"。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func (c AssistantConfig) validate() error {
	switch c.ReplyMode {
	case ReplyConcurrent, ReplySerial:
	default:
		return fmt.Errorf("invalid ASSISTANT_REPLY_MODE value %q: want %q or %q", c.ReplyMode, ReplyConcurrent, ReplySerial)
	}
	if c.ReplyDelay < 0 {
		return fmt.Errorf("invalid ASSISTANT_REPLY_DELAY value %q: must not be negative", c.ReplyDelay)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("invalid ASSISTANT_AI_TIMEOUT value %q: must be positive", c.AITimeout)
	}
	return nil
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("ark credentials missing: need ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY plus ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	})
}
