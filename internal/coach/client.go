package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Role identifies the author of a coach message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one line of a weekly coach transcript.
type Message struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
}

// ErrOffline is returned by clients that have no language model configured.
var ErrOffline = errors.New("coach offline")

// Client completes a conversation given a system prompt and the transcript so far.
type Client interface {
	Complete(ctx context.Context, system string, transcript []Message) (string, error)
}

// NewClient returns an OpenAI backed client, or an offline client when apiKey is empty.
func NewClient(apiKey string, model string, logger *slog.Logger) Client {
	if apiKey == "" {
		return offlineClient{}
	}
	return &openAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

type offlineClient struct{}

func (offlineClient) Complete(context.Context, string, []Message) (string, error) {
	return "", ErrOffline
}

// openAIClient handles interactions with OpenAI chat models.
type openAIClient struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func (c *openAIClient) Complete(ctx context.Context, system string, transcript []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, m := range transcript {
		if m.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(m.Text))
			continue
		}
		messages = append(messages, openai.UserMessage(m.Text))
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "sending chat completion request",
		slog.String("model", c.model), slog.Int("message_count", len(messages)))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "received chat completion response",
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens))

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.New("empty chat completion")
	}
	return completion.Choices[0].Message.Content, nil
}
