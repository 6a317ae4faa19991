package main

import (
	"context"
	"debate-lab/internal"
	"debate-lab/observability"
	"debate-lab/persona"
	"debate-lab/projection"
	"debate-lab/runtime"
	"debate-lab/runtime/workers"
	"debate-lab/sink"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// run keeps every deferred cleanup (archive, bus, metrics server) ahead of os.Exit.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	personas, err := persona.Load(config.PersonasFile)
	if err != nil {
		return exitConfig, err
	}
	for _, p := range personas {
		logger.Info("Debater loaded", "participant", string(p.Identity), "description", p.Description)
	}
	selector := buildSelector(config)
	policy, err := buildPolicy(config)
	if err != nil {
		return exitConfig, err
	}
	sanitizer, err := buildSanitizer(config, logger)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 3. Model client
	client, err := buildModelClient(ctx, config, logger, metrics)
	if err != nil {
		return exitConfig, err
	}

	// 4. Sinks, the transcript archive is optional
	session := uuid.NewString()
	timeline := projection.NewTimeline(session)
	fanout := sink.NewFanout(logger, config.SinkTimeout,
		sink.NewConsole(os.Stdout, config.Colours),
		sink.NewLog(logger),
		metrics,
		timeline,
	)
	if config.TranscriptFilepath != "" {
		db, err := badger.Open(buildBadgerOpts(config))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		fanout.Add(sink.NewTranscript(buildTranscriptRepository(db, config, logger), logger))
	}

	// 5. Bus & group chat
	bus := runtime.NewBus(logger, workers.NewSupervisor(logger, config.RestartInterval), runtime.NewRegistry())
	orchestrator, err := runtime.NewOrchestrator(logger, runtime.OrchestratorConfig{
		Manager:       toIdentity(config.ManagerID),
		GroupChannel:  toChannel(config.GroupChannel),
		Session:       session,
		MaxRounds:     uint64(config.MaxRounds),
		RoundTimeout:  config.RoundTimeout,
		ModelTimeout:  config.ModelTimeout,
		HistoryWindow: config.HistoryWindow,
		Policy:        policy,
	}, bus, client, personas, selector, sanitizer, fanout)
	if err != nil {
		return exitConfig, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if config.MetricsPort > 0 {
		server := observability.NewServer(logger, config.MetricsPort, registry)
		g.Go(func() error { return server.Run(gctx) })
	}

	busCtx, cancelBus := context.WithCancel(context.Background())
	defer cancelBus()
	if err := orchestrator.Start(busCtx); err != nil {
		return exitRuntime, err
	}

	logger.Info("Debate started",
		"session", session,
		"provider", config.LLMProvider,
		"max_rounds", config.MaxRounds)
	if err := orchestrator.Seed(ctx, config.SeedPrompt); err != nil {
		orchestrator.Stop()
		return exitRuntime, err
	}

	select {
	case <-orchestrator.Done():
		logger.Info("Debate finished",
			"session", session,
			"reason", orchestrator.Reason(),
			"rounds", len(timeline.Entries()),
			"wins", timeline.Wins(),
			"terminated", timeline.Terminated())
	case <-gctx.Done():
		logger.Info("Shutdown requested", "session", session)
		// in-flight model calls are aborted
		cancelBus()
	}

	orchestrator.Stop()
	cancelBus()
	stop()
	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
