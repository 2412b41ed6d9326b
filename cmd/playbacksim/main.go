// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command playbacksim runs scripted playback sessions against fake players
// and manifest loaders, so failover behaviour can be watched end to end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ManuGH/playresilience/internal/bus"
	"github.com/ManuGH/playresilience/internal/config"
	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath   string
	scenarioPath string
	listen       string
	reportPath   string
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	flag.StringVar(&opts.scenarioPath, "scenario", "", "path to scenario file (YAML)")
	flag.StringVar(&opts.listen, "listen", "", "status server address (overrides config)")
	flag.StringVar(&opts.reportPath, "report", "", "write a JSON report to this path")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "playbacksim", Version: version})
	logger := xglog.WithComponent("playbacksim")

	if opts.scenarioPath == "" {
		logger.Fatal().Str("event", "startup.invalid_flags").Msg("-scenario is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logger.Fatal().Err(err).Str("event", "sim.failed").Msg("simulation failed")
	}
}

func run(ctx context.Context, opts options) error {
	loader := config.NewLoader(opts.configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	xglog.Reconfigure(cfg.LogConfig())
	logger := xglog.WithComponent("playbacksim")
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}

	scenarios, err := loadScenarios(opts.scenarioPath)
	if err != nil {
		return err
	}

	tp, err := telemetry.NewProvider(ctx, cfg.TelemetryProviderConfig())
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("telemetry shutdown error")
			}
		}()
	}

	eventBus := bus.NewMemoryBusWithBuffer(cfg.Bus.Buffer)
	sub, err := eventBus.Subscribe(ctx, plugins.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to plugin events: %w", err)
	}
	defer func() { _ = sub.Close() }()

	sink := plugins.Multi{plugins.NewLogSink(), plugins.MetricsSink{}, plugins.NewBusSink(eventBus)}

	holder := config.NewHolder(cfg, loader)
	reloads := make(chan config.AppConfig, 1)
	holder.RegisterListener(reloads)

	lp := loop.New(loop.WithPanicRecovery(true))
	r := newRunner(lp, func() config.SessionConfig { return holder.Get().Session }, sink)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := lp.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           newRouter(lp.Do, r),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info().Str("event", "server.listening").Str("addr", srv.Addr).Msg("status server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := holder.StartWatcher(gctx); err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		for {
			select {
			case <-gctx.Done():
				holder.Stop()
				return nil
			case next := <-reloads:
				xglog.Reconfigure(next.LogConfig())
				logger.Info().Str("event", "config.applied").Msg("new sessions use reloaded defaults")
			}
		}
	})

	var (
		eventsMu sync.Mutex
		events   []plugins.Event
	)
	collect := func(msg any) {
		if ev, ok := msg.(plugins.Event); ok {
			eventsMu.Lock()
			events = append(events, ev)
			eventsMu.Unlock()
		}
	}
	g.Go(func() error {
		for {
			select {
			case msg, ok := <-sub.C():
				if !ok {
					return nil
				}
				collect(msg)
			case <-gctx.Done():
				for {
					select {
					case msg, ok := <-sub.C():
						if !ok {
							return nil
						}
						collect(msg)
					default:
						return nil
					}
				}
			}
		}
	})

	started := time.Now()
	outcomes := make([]Outcome, 0, len(scenarios))
	lp.Post(func() {
		for i := range scenarios {
			r.start(&scenarios[i], func(o Outcome) {
				outcomes = append(outcomes, o)
				if len(outcomes) == len(scenarios) {
					cancel()
				}
			})
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logOutcomes(logger, outcomes)

	if opts.reportPath == "" {
		return nil
	}
	eventsMu.Lock()
	rep := Report{
		StartedAt: started,
		EndedAt:   time.Now(),
		Outcomes:  outcomes,
		Events:    events,
		Summary:   summarize(outcomes, events),
	}
	eventsMu.Unlock()
	if err := writeReport(opts.reportPath, rep); err != nil {
		return err
	}
	logger.Info().Str("event", "sim.report_written").Str("path", opts.reportPath).Msg("report written")
	return nil
}

func logOutcomes(logger zerolog.Logger, outcomes []Outcome) {
	for _, o := range outcomes {
		ev := logger.Info()
		if o.Fatal != "" || o.Error != "" {
			ev = logger.Warn()
		}
		ev.Str("scenario", o.Scenario).
			Str("final_state", string(o.FinalState)).
			Str("current_cdn", o.Sources.CDN).
			Int("players", o.Players).
			Str("fatal", o.Fatal).
			Str("error", o.Error).
			Msg("scenario outcome")
	}
}
