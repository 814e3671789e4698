package service

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rushteam/shoprec/core"
)

// OpenAIConfig 是 OpenAI 兼容补全服务的配置。
// BaseURL 可指向任何 OpenAI 协议兼容的网关（官方 API、代理、自建服务）。
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig 返回默认配置。
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
	}
}

// OpenAIChat 是 core.ChatService 的 OpenAI 实现。
//
// 凭证缺失时构造仍然成功，但 Complete 返回 core.ErrNoCredential：
// 引擎据此走无信号降级路径，而不是在装配期失败。
type OpenAIChat struct {
	client *openai.Client
	config *OpenAIConfig
}

// NewOpenAIChat 创建 OpenAI 补全客户端。
func NewOpenAIChat(cfg *OpenAIConfig) *OpenAIChat {
	if cfg == nil {
		cfg = DefaultOpenAIConfig()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIChat{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Complete 发起一次补全：单次尽力而为，无重试，超时由 ctx 与配置共同约束。
func (c *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	if c.config.APIKey == "" {
		return "", core.ErrNoCredential
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
