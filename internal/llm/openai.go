package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"taste-haven-assistant/internal/restaurant"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

// OpenAIChat answers plain chat turns with an OpenAI chat completion.
type OpenAIChat struct {
	client  *openai.Client
	model   string
	history *history
}

// NewOpenAIChat builds the backend. baseURL may be empty for the public API.
func NewOpenAIChat(apiKey, baseURL, model string) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIChat{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		history: newHistory(maxHistory),
	}
}

func (c *OpenAIChat) Chat(ctx context.Context, req restaurant.ChatRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
	}
	for _, t := range c.history.get(req.SessionID) {
		role := openai.ChatMessageRoleUser
		if t.Role == roleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.4,
		Messages:    messages,
		User:        req.SessionID,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	c.history.commit(req.SessionID, req.Message, reply)
	return reply, nil
}
