// Package llm 把经过公式保护的文本交给大模型翻译，并校验占位符是否被完整保留。
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnknownProvider 未知的客户端后端
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrEmptyResponse 模型没有返回任何候选结果
	ErrEmptyResponse = errors.New("llm returned no choices")
	// ErrPlaceholderMismatch 模型输出丢失或捏造了占位符
	ErrPlaceholderMismatch = errors.New("placeholder mismatch in llm output")
)

const (
	// ProviderOpenAI 官方 openai-go SDK
	ProviderOpenAI = "openai"
	// ProviderGoOpenAI sashabaranov/go-openai，适合各类 OpenAI 兼容服务
	ProviderGoOpenAI = "go-openai"
)

// Client 大模型对话补全客户端
type Client interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// NewClient 按 Provider 创建客户端
func NewClient(cfg ClientConfig, log *zap.Logger) (Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	log.Debug("creating llm client",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.String("api_key", maskAuthToken(cfg.APIKey)),
		zap.Duration("timeout", cfg.Timeout))

	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderGoOpenAI:
		return NewCompatClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func (c ClientConfig) httpClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}

// maskAuthToken 遮蔽认证令牌，只显示前4位和后4位
func maskAuthToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
