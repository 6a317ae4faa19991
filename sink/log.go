package sink

import (
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"log/slog"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
)

// Log writes one structured record per round outcome.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) Log {
	return Log{log: log}
}

func (l Log) Consume(ctx context.Context, e event.Event) error {
	switch p := e.Payload.(type) {
	case event.RoundCompleted:
		l.log.InfoContext(ctx, "Winner selected",
			"session", e.Session,
			"round", p.Round,
			"winner", string(p.Winner.Source),
			"lang", DetectLang(p.Winner.Content),
			"responses", len(p.Responses),
			"abstained", lo.Map(p.Abstained, func(id domain.Identity, _ int) string { return string(id) }),
			"duration_ms", p.Duration.Milliseconds())
	case event.RoundFailed:
		l.log.WarnContext(ctx, "Round failed", "session", e.Session, "round", p.Round)
	case event.ConversationTerminated:
		l.log.InfoContext(ctx, "Conversation terminated", "session", e.Session, "round", p.Round, "by", string(p.By))
	}
	return nil
}

// DetectLang returns the ISO 639-1 code of the content language, empty when unsure.
func DetectLang(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
