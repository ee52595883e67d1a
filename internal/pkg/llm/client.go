package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/qs3c/ramadan_bot_server/config"
)

var (
	ErrNotConfigured = errors.New("llm api key is not configured")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Request 一次寄语生成的输入
type Request struct {
	Topic string
	Day   int
	Hint  string
}

// Client 通过 OpenAI 兼容接口调用 Gemini
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		model:   cfg.LLM.Model,
		timeout: cfg.LLMTimeout(),
	}
	if cfg.LLM.APIKey == "" {
		return c
	}

	oc := openai.DefaultConfig(cfg.LLM.APIKey)
	if cfg.LLM.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Generate 生成一段寄语，返回去掉首尾空白的文本
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req.Topic, req.Day, req.Hint)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
