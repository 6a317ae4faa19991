package sink

import (
	"context"
	"debate-lab/domain/event"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

// Console prints the debate as it happens, one "source: content" line per reply.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
}

func NewConsole(out io.Writer, colours bool) *Console {
	return &Console{out: out, colours: colours}
}

func (c *Console) paint(style color.Style, s string) string {
	if !c.colours {
		return s
	}
	return style.Render(s)
}

func (c *Console) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch p := e.Payload.(type) {
	case event.RoundStarted:
		header := fmt.Sprintf("====== round %d ======", p.Round)
		_, err = fmt.Fprintf(c.out, "%s\n%s: %s\n",
			c.paint(color.New(color.BgBlack, color.FgGreen), header), p.Prompt.Source, p.Prompt.Content)
	case event.RoundCompleted:
		for _, r := range p.Responses {
			line := fmt.Sprintf("%s: %s", r.Source, r.Content)
			if r.Source == p.Winner.Source {
				line = c.paint(color.New(color.FgCyan, color.OpBold), line+"  (selected)")
			}
			if _, err = fmt.Fprintln(c.out, line); err != nil {
				return err
			}
		}
	case event.ParticipantAbstained:
		_, err = fmt.Fprintln(c.out, c.paint(color.New(color.FgYellow),
			fmt.Sprintf("%s abstained: %s", p.Participant, p.Reason)))
	case event.RoundFailed:
		_, err = fmt.Fprintln(c.out, c.paint(color.New(color.FgRed),
			fmt.Sprintf("round %d failed, nobody answered", p.Round)))
	case event.ConversationTerminated:
		_, err = fmt.Fprintln(c.out, c.paint(color.New(color.FgRed, color.OpBold),
			fmt.Sprintf("conversation terminated by %s", p.By)))
	}
	return err
}
