package llm

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"time"
)

type CallObserver interface {
	ObserveModelCall(provider, model string, duration time.Duration, err error)
}

// Instrumented reports the latency and outcome of every call to an observer.
type Instrumented struct {
	next     contract.ModelClient
	provider Provider
	model    string
	observer CallObserver
}

func Instrument(next contract.ModelClient, cfg Config, observer CallObserver) *Instrumented {
	return &Instrumented{next: next, provider: cfg.Provider, model: cfg.Model, observer: observer}
}

func (i *Instrumented) Complete(ctx context.Context, messages []domain.Utterance) (string, error) {
	start := time.Now()
	content, err := i.next.Complete(ctx, messages)
	i.observer.ObserveModelCall(string(i.provider), i.model, time.Since(start), err)
	return content, err
}
