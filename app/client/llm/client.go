package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"canvasd/app/config"

	"github.com/sashabaranov/go-openai"
)

const (
	requestTimeout      = 30 * time.Second
	maxCompletionTokens = 4000
	defaultTemperature  = 0.7
)

type Message struct {
	Role    string
	Content string
}

// Client generates one chat completion from a conversation transcript and
// an optional system prompt. Implementations must honor the context
// deadline; a failed call surfaces to the user as an error turn, never as a
// crash.
type Client interface {
	Generate(ctx context.Context, messages []Message, systemPrompt string) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg config.ModelConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: requestTimeout,
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, systemPrompt string) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if systemPrompt != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:               c.model,
			Messages:            chatMessages,
			MaxCompletionTokens: maxCompletionTokens,
			Temperature:         defaultTemperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}
