package internal

import (
	"debate-lab/errors"
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultSeedPrompt = "Let's discuss climate change. What are your thoughts?"

var validate = validator.New()

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	LLMProvider    string   `env:"LLM_PROVIDER,default=offline" validate:"oneof=openai anthropic gemini offline"`
	LLMAPIKey      string   `env:"LLM_API_KEY"`
	LLMBaseURL     string   `env:"LLM_BASE_URL" validate:"omitempty,url"`
	LLMModel       string   `env:"LLM_MODEL"`
	LLMMaxTokens   int      `env:"LLM_MAX_TOKENS,default=1024" validate:"min=1"`
	LLMTemperature *float64 `env:"LLM_TEMPERATURE" validate:"omitempty,min=0,max=2"`
	// OFFLINE_LATENCY simulates a model round trip for the offline provider
	OfflineLatency time.Duration `env:"OFFLINE_LATENCY,default=0s"`

	ModelTimeout      time.Duration `env:"MODEL_TIMEOUT,default=60s" validate:"min=0"`
	RoundTimeout      time.Duration `env:"ROUND_TIMEOUT,default=0s" validate:"min=0"`
	FailurePolicy     string        `env:"FAILURE_POLICY,default=quorum" validate:"oneof=quorum stall"`
	SelectionStrategy string        `env:"SELECTION_STRATEGY,default=random" validate:"oneof=random first"`
	SelectionSeed     *int64        `env:"SELECTION_SEED"`
	HistoryWindow     int           `env:"HISTORY_WINDOW,default=0" validate:"min=0"`
	MaxRounds         int           `env:"MAX_ROUNDS,default=3" validate:"min=0"`
	SeedPrompt        string        `env:"SEED_PROMPT"`
	PersonasFile      string        `env:"PERSONAS_FILE"`
	ManagerID         string        `env:"MANAGER_ID,default=Manager" validate:"required,ne=User,excludesall= :"`
	GroupChannel      string        `env:"GROUP_CHANNEL,default=group_chat" validate:"required,excludesall= "`

	TranscriptFilepath string        `env:"TRANSCRIPT_FILEPATH"`
	LimitTurns         *int          `env:"LIMIT_TURNS" validate:"omitempty,min=1"`
	MetricsPort        int           `env:"METRICS_PORT,default=0" validate:"min=0,max=65535"`
	ModerationEnabled  bool          `env:"MODERATION_ENABLED,default=false"`
	CharReplacement    string        `env:"CHARACTER_REPLACEMENT,default=*"`
	SinkTimeout        time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	Colours            bool          `env:"COLOURS,default=true"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return ParseConfig(es)
}

func ParseConfig(es env.EnvSet) (Config, error) {
	var config Config
	if err := env.Unmarshal(es, &config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if config.SeedPrompt == "" {
		config.SeedPrompt = DefaultSeedPrompt
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if config.LLMProvider != "offline" && config.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("%w: LLM_API_KEY is required for provider %s", errors.ErrMissingAPIKey, config.LLMProvider)
	}
	if _, err := CharacterRune(config.CharReplacement); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return config, nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
