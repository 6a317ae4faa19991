package main

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/groupchat"
	"debate-lab/internal"
	"debate-lab/llm"
	"debate-lab/moderation"
	"debate-lab/repositories"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func toIdentity(s string) domain.Identity { return domain.Identity(s) }

func toChannel(s string) domain.Channel { return domain.Channel(s) }

func buildSelector(config internal.Config) contract.Selector {
	if config.SelectionStrategy == "first" {
		return groupchat.FirstSelector{}
	}
	if config.SelectionSeed != nil {
		return groupchat.NewSeededSelector(uint64(*config.SelectionSeed))
	}
	now := uint64(time.Now().UnixNano())
	return groupchat.NewRandomSelector(rand.NewPCG(now, now>>1))
}

func buildPolicy(config internal.Config) (groupchat.FailurePolicy, error) {
	return groupchat.ParseFailurePolicy(config.FailurePolicy)
}

// buildSanitizer returns a nil interface when moderation is disabled.
func buildSanitizer(config internal.Config, log *slog.Logger) (contract.Sanitizer, error) {
	if !config.ModerationEnabled {
		return nil, nil
	}
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	words, err := moderation.DefaultWordList()
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "languages", words.Languages, "words", len(words.Words))
	return moderation.NewModerator(words.Words, replacement, log)
}

func buildModelClient(ctx context.Context, config internal.Config, log *slog.Logger, observer llm.CallObserver) (contract.ModelClient, error) {
	cfg := llm.Config{
		Provider:    llm.Provider(config.LLMProvider),
		APIKey:      config.LLMAPIKey,
		BaseURL:     config.LLMBaseURL,
		Model:       config.LLMModel,
		MaxTokens:   config.LLMMaxTokens,
		Temperature: config.LLMTemperature,
		Latency:     config.OfflineLatency,
	}
	client, err := llm.New(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	return llm.Instrument(client, cfg, observer), nil
}

func buildBadgerOpts(config internal.Config) badger.Options {
	return badger.DefaultOptions(config.TranscriptFilepath).
		WithLoggingLevel(badger.WARNING)
}

func buildTranscriptRepository(db *badger.DB, config internal.Config, log *slog.Logger) repositories.TranscriptRepository {
	return repositories.NewTranscriptRepository(db, log, config.LimitTurns)
}
