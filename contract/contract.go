//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Workers exposing a Name() method are named after it instead.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	if named, ok := w.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Handler reacts to messages delivered to an identity.
// The bus calls it from a single goroutine per identity.
type Handler interface {
	Handle(ctx context.Context, msg domain.Message) error
}

type HandlerFunc func(ctx context.Context, msg domain.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

type Publisher interface {
	Publish(ctx context.Context, channel domain.Channel, msg domain.Message) error
}

type IBus interface {
	Publisher
	Register(identity domain.Identity, handler Handler) error
	Declare(channel domain.Channel) error
	Subscribe(channel domain.Channel, identity domain.Identity) error
	Validate(channels ...domain.Channel) error
	Start(ctx context.Context) error
	Stop()
}

// ModelClient turns an ordered conversation into one completion.
// Implementations must be safe for concurrent use.
type ModelClient interface {
	Complete(ctx context.Context, messages []domain.Utterance) (string, error)
}

// Selector picks the index of the winning utterance among the collected ones.
type Selector interface {
	Select(candidates []domain.Utterance) int
}

// Sanitizer rewrites reply content before it enters a round.
type Sanitizer interface {
	Sanitize(content string) string
}

type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// GetSinkName returns the type name of a sink, for logs.
func GetSinkName(s EventSink) string {
	if s == nil {
		return "NilSink"
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
