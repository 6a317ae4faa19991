package llm

import (
	"context"
	"debate-lab/domain"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Anthropic struct {
	log    *slog.Logger
	client anthropic.Client
	cfg    Config
}

func NewAnthropic(log *slog.Logger, cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	return &Anthropic{
		log:    log,
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *Anthropic) Complete(ctx context.Context, messages []domain.Utterance) (string, error) {
	system, turns := anthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: c.cfg.maxTokens(),
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}
	if c.cfg.Temperature != nil {
		params.Temperature = anthropic.Float(*c.cfg.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	c.log.Debug("Chat completed",
		"provider", ProviderAnthropic,
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// anthropicMessages moves system prompts out of the message list, where the API does not accept them.
func anthropicMessages(messages []domain.Utterance) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	turns := make([]anthropic.MessageParam, 0, len(messages))
	for _, u := range messages {
		switch u.Role {
		case domain.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: u.Content})
		case domain.RoleAssistant:
			turns = append(turns, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(u.Content)},
			})
		default:
			turns = append(turns, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(u.Content)},
			})
		}
	}
	return system, turns
}
