package sink

import (
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"debate-lab/repositories"
	"log/slog"

	"github.com/samber/lo"
)

// Transcript archives every completed round.
type Transcript struct {
	repository repositories.ITranscriptRepository
	log        *slog.Logger
}

func NewTranscript(repository repositories.ITranscriptRepository, log *slog.Logger) Transcript {
	return Transcript{repository: repository, log: log}
}

func (t Transcript) Consume(ctx context.Context, e event.Event) error {
	p, ok := e.Payload.(event.RoundCompleted)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.repository.StoreTurn(toDiskTurn(e, p)); err != nil {
		return err
	}
	t.log.Debug("Turn archived", "session", e.Session, "round", p.Round)
	return nil
}

func toDiskTurn(e event.Event, p event.RoundCompleted) repositories.DiskTurn {
	return repositories.DiskTurn{
		Session: e.Session,
		Round:   p.Round,
		Winner:  string(p.Winner.Source),
		Content: p.Winner.Content,
		Responses: lo.Map(p.Responses, func(u domain.Utterance, _ int) repositories.DiskReply {
			return repositories.DiskReply{
				Participant: string(u.Source),
				Content:     u.Content,
				Lang:        DetectLang(u.Content),
			}
		}),
		Abstained: lo.Map(p.Abstained, func(id domain.Identity, _ int) string { return string(id) }),
		Duration:  p.Duration,
		At:        e.CreatedAt,
	}
}
