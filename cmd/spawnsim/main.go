// Command spawnsim replays a recorded case against the item spawner.
//
// It loads the engine config, a city fixture and the rule files, then feeds
// the scenario's events to the dispatcher while the scan scheduler ticks in
// the background. Trigger state is saved on exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/config"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/dispatch"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/host"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/observe"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/scan"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/spawn"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

const ConfigPath = "config/spawner.yaml"

// drainTimeout bounds how long the replay waits for scans after the last event.
const drainTimeout = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", envOr("SPAWNER_CONFIG", ConfigPath), "path to the spawner YAML config")
	cityPath := flag.String("city", "testdata/city.yaml", "path to the city fixture")
	scenarioPath := flag.String("scenario", "config/scenario.yaml", "path to the scenario to replay")
	flag.Parse()

	// Load config FIRST to determine log level
	cfg, err := config.LoadSpawner(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logLevel, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("spawnsim starting",
		"config", *cfgPath,
		"log_level", cfg.LogLevel,
		"state_backend", cfg.State.Backend)

	city, err := world.LoadCity(*cityPath)
	if err != nil {
		return fmt.Errorf("loading city: %w", err)
	}
	slog.Info("city loaded", "buildings", len(city.Buildings()), "rooms", city.RoomCount())

	sc, err := LoadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	cast, err := sc.Cast.Resolve(city)
	if err != nil {
		return fmt.Errorf("resolving cast: %w", err)
	}

	rs, err := rules.Load(ctx, cfg.Rules.Directories, cfg.Rules.DefaultFile)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.State)
	if err != nil {
		return err
	}
	defer closeStore()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			slog.Error("meter provider shutdown", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	slog.Info("random source seeded", "seed", seed)

	h := host.New()
	spawner := spawn.NewManager(h)
	scheduler := scan.NewScheduler(cfg.Scan.BatchSize)

	d, err := dispatch.New(dispatch.Config{
		Rules:     rs,
		Graph:     city,
		Cast:      cast,
		Spawner:   spawner,
		Store:     store,
		Slot:      cfg.State.Slot,
		SessionID: sc.Session,
		Scheduler: scheduler,
		Metrics:   metrics,
		Rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	if sc.Resume {
		err = d.Load(ctx, sc.Session)
	} else {
		err = d.NewSession(ctx, sc.Session)
	}
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	var watcher *rules.Watcher
	if cfg.Rules.WatchInterval > 0 {
		watcher, err = rules.NewWatcher(cfg.Rules.Directories, cfg.Rules.DefaultFile,
			func(rs *rules.RuleSet) { d.ReloadRules(ctx, rs) },
			rules.WithInterval(cfg.Rules.WatchInterval))
		if err != nil {
			return fmt.Errorf("creating rules watcher: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(gctx, cfg.Scan.TickInterval, func() { logResults(d.Tick(gctx)) })
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		defer scheduler.Stop()
		if watcher != nil {
			defer watcher.Stop()
		}
		return replay(gctx, d, sc)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("replaying scenario: %w", err)
	}

	if err := d.Save(context.Background()); err != nil {
		return err
	}

	totals, err := observe.Totals(context.Background(), reader)
	if err != nil {
		slog.Warn("collecting metrics", "err", err)
	}
	slog.Info("replay finished",
		"session", sc.Session,
		"objects", spawner.Count(),
		"phases", d.Tracker().Summary(d.Rules()),
		"metrics", totals)
	return nil
}

// replay delivers the scenario events, then waits for scans still in flight.
func replay(ctx context.Context, d *dispatch.Dispatcher, sc Scenario) error {
	for _, ev := range sc.Events {
		for range max(ev.Repeat, 1) {
			logResults(d.OnEvent(ctx, ev.Name, ev.Method))
		}
		if ev.Wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ev.Wait):
			}
		}
	}

	deadline := time.NewTimer(drainTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	for d.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			slog.Warn("scans still running after replay", "pending", d.Pending())
			return nil
		case <-poll.C:
		}
	}
	return nil
}

func logResults(results []dispatch.Result) {
	for _, r := range results {
		slog.Debug("rule evaluated",
			"rule", r.Rule,
			"event", r.Event,
			"status", r.Status,
			"objectID", r.ObjectID)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
