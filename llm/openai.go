package llm

import (
	"context"
	"debate-lab/domain"
	"debate-lab/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAI struct {
	log    *slog.Logger
	client openai.Client
	cfg    Config
}

func NewOpenAI(log *slog.Logger, cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAI{
		log:    log,
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *OpenAI) Complete(ctx context.Context, messages []domain.Utterance) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.cfg.Model),
		Messages:            openAIMessages(messages),
		MaxCompletionTokens: openai.Int(c.cfg.maxTokens()),
	}
	if c.cfg.Temperature != nil {
		params.Temperature = openai.Float(*c.cfg.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	c.log.Debug("Chat completed",
		"provider", ProviderOpenAI,
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", errors.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIMessages(messages []domain.Utterance) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, u := range messages {
		switch u.Role {
		case domain.RoleSystem:
			result = append(result, openai.SystemMessage(u.Content))
		case domain.RoleAssistant:
			result = append(result, openai.AssistantMessage(u.Content))
		default:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Name: openai.String(SanitizeName(string(u.Source))),
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(u.Content),
					},
				},
			})
		}
	}
	return result
}
