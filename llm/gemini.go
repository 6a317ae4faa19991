package llm

import (
	"context"
	"debate-lab/domain"
	"debate-lab/errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

type Gemini struct {
	log    *slog.Logger
	client *genai.Client
	cfg    Config
}

func NewGemini(ctx context.Context, log *slog.Logger, cfg Config) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	// Model should not start with "models/"
	cfg.Model = strings.TrimPrefix(cfg.Model, "models/")
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &Gemini{log: log, client: client, cfg: cfg}, nil
}

func (c *Gemini) Complete(ctx context.Context, messages []domain.Utterance) (string, error) {
	cfg, contents := geminiContents(messages)
	cfg.MaxOutputTokens = int32(c.cfg.maxTokens())
	if c.cfg.Temperature != nil {
		t := float32(*c.cfg.Temperature)
		cfg.Temperature = &t
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", errors.ErrEmptyCompletion)
	}
	candidate := resp.Candidates[0]
	c.log.Debug("Chat completed",
		"provider", ProviderGemini,
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", candidate.FinishReason)

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if p != nil && p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}

// geminiContents merges consecutive turns of the same role into one content.
func geminiContents(messages []domain.Utterance) (*genai.GenerateContentConfig, []*genai.Content) {
	cfg := &genai.GenerateContentConfig{}
	var (
		prompts  []*genai.Part
		contents []*genai.Content
		last     *genai.Content
	)
	for _, u := range messages {
		role := "user"
		switch u.Role {
		case domain.RoleSystem:
			prompts = append(prompts, genai.NewPartFromText(u.Content))
			continue
		case domain.RoleAssistant:
			role = "model"
		}
		part := genai.NewPartFromText(u.Content)
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, part)
			continue
		}
		last = &genai.Content{Role: role, Parts: []*genai.Part{part}}
		contents = append(contents, last)
	}
	if len(prompts) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: prompts}
	}
	return cfg, contents
}
