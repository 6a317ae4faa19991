// Package observability exposes the debate as Prometheus metrics.
package observability

import (
	"context"
	"debate-lab/domain/event"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "debate"

// Metrics counts rounds, winners and model calls.
// It is an EventSink and an llm.CallObserver at the same time.
type Metrics struct {
	roundsTotal       *prometheus.CounterVec
	roundDuration     prometheus.Histogram
	currentRound      prometheus.Gauge
	winsTotal         *prometheus.CounterVec
	abstentionsTotal  *prometheus.CounterVec
	discardedTotal    prometheus.Counter
	terminationsTotal prometheus.Counter
	modelDuration     *prometheus.HistogramVec
	modelCallsTotal   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_total",
				Help:      "Total number of rounds closed by the manager",
			},
			[]string{"status"}, // status: completed, failed
		),
		roundDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "round_duration_seconds",
				Help:      "Time between a round prompt and its last settled participant",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		currentRound: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_round",
				Help:      "Number of the round in progress",
			},
		),
		winsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wins_total",
				Help:      "Rounds won per participant",
			},
			[]string{"participant"},
		),
		abstentionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "abstentions_total",
				Help:      "Rounds a participant did not answer",
			},
			[]string{"participant"},
		),
		discardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_discarded_total",
				Help:      "Late, duplicate or unexpected replies",
			},
		),
		terminationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "terminations_total",
				Help:      "Terminate tokens seen by the manager",
			},
		),
		modelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_request_duration_seconds",
				Help:      "Duration of model completion calls in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		modelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_requests_total",
				Help:      "Total number of model completion calls",
			},
			[]string{"provider", "model", "status"}, // status: success, error
		),
	}
	reg.MustRegister(
		m.roundsTotal,
		m.roundDuration,
		m.currentRound,
		m.winsTotal,
		m.abstentionsTotal,
		m.discardedTotal,
		m.terminationsTotal,
		m.modelDuration,
		m.modelCallsTotal,
	)
	return m
}

func (m *Metrics) Consume(_ context.Context, e event.Event) error {
	switch p := e.Payload.(type) {
	case event.RoundStarted:
		m.currentRound.Set(float64(p.Round))
	case event.RoundCompleted:
		m.roundsTotal.WithLabelValues("completed").Inc()
		m.roundDuration.Observe(p.Duration.Seconds())
		m.winsTotal.WithLabelValues(string(p.Winner.Source)).Inc()
	case event.RoundFailed:
		m.roundsTotal.WithLabelValues("failed").Inc()
		m.roundDuration.Observe(p.Duration.Seconds())
	case event.ParticipantAbstained:
		m.abstentionsTotal.WithLabelValues(string(p.Participant)).Inc()
	case event.ReplyDiscarded:
		m.discardedTotal.Inc()
	case event.ConversationTerminated:
		m.terminationsTotal.Inc()
	}
	return nil
}

func (m *Metrics) ObserveModelCall(provider, model string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.modelDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	m.modelCallsTotal.WithLabelValues(provider, model, status).Inc()
}
