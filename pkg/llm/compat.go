package llm

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// CompatClient 基于 go-openai 的客户端，用于 OpenAI 兼容接口
type CompatClient struct {
	config ClientConfig
	client *goopenai.Client
}

// NewCompatClient 创建兼容客户端
func NewCompatClient(config ClientConfig) *CompatClient {
	cfg := goopenai.DefaultConfig(config.APIKey)
	cfg.HTTPClient = config.httpClient()
	if config.BaseURL != "" {
		// go-openai 的接口后缀以斜杠开头
		cfg.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	return &CompatClient{
		config: config,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

// Name 返回客户端名称
func (c *CompatClient) Name() string {
	return ProviderGoOpenAI + ":" + c.config.Model
}

// Complete 执行一次对话补全
func (c *CompatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.config.Temperature),
		MaxTokens:   c.config.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("go-openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
