// Command swarmd runs the swarm decision core: worker lifecycle,
// reputation fusion, and task matching with atomic assignment.
//
// Usage:
//
//	swarmd daemon  [--config swarmd.toml]            run all cycles on their intervals
//	swarmd cycle   [--config swarmd.toml] [--dry-run] run one coordination cycle
//	swarmd health  [--config swarmd.toml] [--json]    run one health check
//	swarmd status  [--config swarmd.toml] [--json]    print runner state and config
//	swarmd skills  [--config swarmd.toml] <query>     search worker capabilities
//	swarmd unpause [--config swarmd.toml]             clear the auto-pause flag
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hivemesh/swarmd/bus"
	"github.com/hivemesh/swarmd/coordinator"
	"github.com/hivemesh/swarmd/heartbeat"
	"github.com/hivemesh/swarmd/lifecycle"
	"github.com/hivemesh/swarmd/logging"
	"github.com/hivemesh/swarmd/marketplace"
	"github.com/hivemesh/swarmd/match"
	"github.com/hivemesh/swarmd/outcomes"
	"github.com/hivemesh/swarmd/ratelimit"
	"github.com/hivemesh/swarmd/reputation"
	"github.com/hivemesh/swarmd/runner"
	"github.com/hivemesh/swarmd/shutdown"
	"github.com/hivemesh/swarmd/skills"
	"github.com/hivemesh/swarmd/state"
	"github.com/hivemesh/swarmd/swarmstate"
	"github.com/hivemesh/swarmd/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "swarmd.toml", "path to the TOML config file")
	dryRun := fs.Bool("dry-run", false, "compute assignments without claiming or notifying")
	jsonOut := fs.Bool("json", false, "print machine-readable output")
	fs.Parse(os.Args[2:])

	log := logging.New()

	cfg, err := runner.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: %v\n", err)
		os.Exit(1)
	}

	app, err := build(cfg, *dryRun, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	switch cmd {
	case "daemon":
		err = runDaemon(app, log)
	case "cycle":
		err = runCycle(app, *jsonOut)
	case "health":
		err = runHealth(app, *jsonOut)
	case "status":
		err = printStatus(app, *jsonOut)
	case "skills":
		err = runSkillSearch(app, fs.Args(), *jsonOut)
	case "unpause":
		err = app.runner.Unpause()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "swarmd: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: swarmd <daemon|cycle|health|status|skills|unpause> [--config file] [--dry-run] [--json]")
}

// app bundles the wired components for one invocation.
type app struct {
	cfg      runner.Config
	runner   *runner.Runner
	coord    *coordinator.Coordinator
	store    state.StateStore
	conn     *nats.Conn
	bus      bus.MessageBus
	limiter  ratelimit.RateLimiter
	recorder *outcomes.Recorder
	roster   *lifecycle.Roster
	registry *skills.Registry
	events   telemetry.Exporter
}

func (a *app) close() {
	if a.events != nil {
		a.events.Close()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
}

// build wires store, marketplace, coordinator, and runner from config.
func build(cfg runner.Config, dryRun bool, log *logging.Logger) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name("swarmd"))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		a.conn = conn

		store, err := state.NewNATSStore(state.NATSStoreConfig{
			Conn:   conn,
			Bucket: cfg.NATS.Bucket,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open state store: %w", err)
		}
		a.store = store
	} else {
		a.store = state.NewMemoryStore()
	}

	if a.conn != nil {
		a.bus = bus.NewNATSBusFromConn(a.conn, bus.NATSConfig{})
	}

	client := swarmstate.NewClient(a.store, log)

	var market marketplace.Browser
	if cfg.Marketplace.BaseURL != "" {
		var limiter ratelimit.RateLimiter
		if cfg.Marketplace.BrowsePerMinute > 0 {
			// Coordinators sharing a bus also share capacity cuts.
			if a.bus != nil {
				shared, err := ratelimit.NewSharedLimiter(ratelimit.SharedConfig{
					Bus:    a.bus,
					Origin: cfg.Identity,
				})
				if err != nil {
					a.close()
					return nil, err
				}
				limiter = shared
			} else {
				limiter = ratelimit.NewMemoryLimiter()
			}
			limiter.SetCapacity(ratelimit.ResourceMarketplace, cfg.Marketplace.BrowsePerMinute, time.Minute)
			a.limiter = limiter
		}

		var err error
		market, err = marketplace.NewHTTPBrowser(marketplace.HTTPConfig{
			BaseURL: cfg.Marketplace.BaseURL,
			APIKey:  cfg.Marketplace.APIKey,
			Limiter: limiter,
		})
		if err != nil {
			a.close()
			return nil, err
		}
	} else {
		market = marketplace.NewStaticBrowser(nil)
	}

	registry := skills.NewRegistry()
	skillsPath := filepath.Join(cfg.DataDir, "skills.json")
	if _, statErr := os.Stat(skillsPath); statErr == nil {
		loaded, err := skills.Load(skillsPath)
		if err != nil {
			log.Warn("skills load failed", map[string]interface{}{"error": err.Error()})
		} else {
			registry = loaded
		}
	}
	a.registry = registry

	coord, err := coordinator.New(cfg.CoordinatorConfig(dryRun), coordinator.Deps{
		State:  client,
		Market: market,
		Skills: registry,
		Logger: log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.coord = coord

	// Earlier runs may have left performance profiles behind.
	profilesDir := filepath.Join(cfg.DataDir, "profiles")
	if _, statErr := os.Stat(profilesDir); statErr == nil {
		if err := coord.LoadProfiles(profilesDir); err != nil {
			log.Warn("profile load failed", map[string]interface{}{"error": err.Error()})
		}
	}

	// A snapshot from an earlier reputation refresh seeds ranking boosts
	// before the first refresh of this run.
	snap, err := reputation.LoadLatest(filepath.Join(cfg.DataDir, "reputation"))
	if err != nil {
		log.Warn("reputation snapshot load failed", map[string]interface{}{"error": err.Error()})
	} else if snap != nil {
		scores := make(map[string]match.RepScore, len(snap.Workers))
		for name, u := range snap.Workers {
			scores[name] = match.RepScore{Composite: u.Composite, Confidence: u.Confidence}
		}
		coord.SetReputation(scores)
	}

	if len(cfg.Workers) > 0 {
		roster, err := lifecycle.NewRoster(cfg.Workers, lifecycle.DefaultConfig())
		if err != nil {
			a.close()
			return nil, err
		}
		a.roster = roster
	}

	// With a shared bus, worker outcome reports feed performance
	// profiles while the daemon runs.
	if a.bus != nil {
		rec, err := outcomes.NewRecorder(outcomes.RecorderConfig{
			Bus:    a.bus,
			Sink:   coord,
			Logger: log,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.recorder = rec
	}

	events, err := telemetry.NewExporter(cfg.Telemetry.Protocol, cfg.Telemetry.Endpoint)
	if err != nil {
		a.close()
		return nil, err
	}
	a.events = events

	r, err := runner.New(cfg, runner.Deps{
		Coordinator: coord,
		State:       client,
		Roster:      a.roster,
		Sources:     reputationSources(coord),
		Telemetry:   events,
		Logger:      log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.runner = r
	return a, nil
}

// reputationSources derives reputation layers from the coordinator's
// performance profiles. Each profile carries both the performance view
// and the counterparty-rating view of a worker.
func reputationSources(coord *coordinator.Coordinator) runner.SourceFunc {
	return func(ctx context.Context) (map[string]reputation.SourceSet, error) {
		cfg := reputation.DefaultConfig()
		profiles := coord.Profiles()
		out := make(map[string]reputation.SourceSet, len(profiles))
		for name, p := range profiles {
			perf := reputation.PerformanceData{
				TasksCompleted:      p.TasksCompleted,
				TasksAttempted:      p.TasksAttempted,
				AvgRatingReceived:   p.AvgRatingReceived,
				CategoryCompletions: p.CategoryCompletions,
				CategoryAttempts:    p.CategoryAttempts,
				NetworkTasks:        p.NetworkTasks,
				TotalEarned:         p.TotalEarned,
			}
			if p.TasksAttempted > 0 {
				perf.Reliability = float64(p.TasksAttempted-p.TasksFailed) / float64(p.TasksAttempted)
			}
			off := reputation.ExtractOffChain(name, &perf, cfg)
			set := reputation.SourceSet{OffChain: &off}
			if p.RatingCount > 0 {
				tx := reputation.ExtractTransactional(name, &reputation.RatingData{
					AvgRatingReceived:    p.AvgRatingReceived,
					TotalRatingsReceived: p.RatingCount,
					AvgRatingGiven:       p.AvgRatingGiven,
				})
				set.Transactional = &tx
			}
			out[name] = set
		}
		return out, nil
	}
}

func runDaemon(a *app, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := shutdown.NewCoordinator(shutdown.Config{})
	if a.bus != nil {
		mon, err := heartbeat.NewMonitor(heartbeat.MonitorConfig{
			Bus:        a.bus,
			Roster:     a.roster,
			StaleAfter: a.cfg.StaleAfter(),
			OnStale: func(worker string, lastSeen time.Time) {
				log.Warn("worker heartbeat stale", map[string]interface{}{
					"worker":    worker,
					"last_seen": lastSeen.Format(time.RFC3339),
				})
			},
		})
		if err != nil {
			return err
		}
		if err := mon.Start(); err != nil {
			return err
		}
		sc.RegisterWithPhase("heartbeat-monitor", shutdown.ShutdownFunc(func(ctx context.Context) error {
			return mon.Stop()
		}), 10)
	}
	if a.recorder != nil {
		if err := a.recorder.Start(); err != nil {
			return err
		}
		sc.RegisterWithPhase("outcome-recorder", shutdown.ShutdownFunc(func(ctx context.Context) error {
			return a.recorder.Stop()
		}), 10)
	}
	sc.RegisterWithPhase("state-store", shutdown.ShutdownFunc(func(ctx context.Context) error {
		return a.store.Close()
	}), 20)
	defer sc.Shutdown(context.Background())

	err := a.runner.Daemon(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runCycle(a *app, jsonOut bool) error {
	result, err := a.runner.RunCoordination(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("cycle finished in %s: %d assignments, %d candidates\n",
		result.Duration.Round(time.Millisecond), len(result.Assignments), result.Candidates)
	for _, as := range result.Assignments {
		fmt.Printf("  %s -> %s (score %.3f, %s)\n", as.TaskID, as.Worker, as.Score, as.Mode)
	}
	if result.SkippedClaimed > 0 {
		fmt.Printf("  %d candidates already claimed elsewhere\n", result.SkippedClaimed)
	}
	if len(result.StaleWorkers) > 0 {
		fmt.Printf("  stale workers: %v\n", result.StaleWorkers)
	}
	return nil
}

func runHealth(a *app, jsonOut bool) error {
	report, err := a.runner.RunHealth(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	fmt.Printf("workers: %d (%d stale), active claims: %d, total value: %.2f\n",
		report.Summary.Workers, report.Summary.Stale,
		report.Summary.ActiveClaims, report.Summary.TotalValue)
	for state, n := range report.Summary.ByState {
		fmt.Printf("  %-12s %d\n", state, n)
	}
	for _, action := range report.Actions {
		fmt.Printf("  [%s] %s: %s (%s)\n", action.Priority, action.Worker, action.Action, action.Reason)
	}
	return nil
}

// runSkillSearch answers "who can do X" over the registered skill
// profiles, best match first.
func runSkillSearch(a *app, args []string, jsonOut bool) error {
	if len(args) == 0 {
		return fmt.Errorf("skills: query required")
	}
	query := strings.Join(args, " ")

	idx, err := skills.NewIndex("")
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.Rebuild(a.registry); err != nil {
		return err
	}

	hits, err := idx.Search(query, 10)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(hits)
	}
	if len(hits) == 0 {
		fmt.Printf("no workers match %q\n", query)
		return nil
	}
	for _, h := range hits {
		fmt.Printf("  %-20s %.3f\n", h.Worker, h.Score)
	}
	return nil
}

func printStatus(a *app, jsonOut bool) error {
	st := a.runner.Status()

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(st)
	}

	fmt.Printf("state: %s\n", st.State)
	fmt.Printf("cycles: %d, assignments: %d, errors: %d\n",
		st.Runner.TotalCycles, st.Runner.TotalAssignments, st.Runner.TotalErrors)
	if !st.Runner.LastCoordination.IsZero() {
		fmt.Printf("last coordination: %s\n", st.Runner.LastCoordination.Format("2006-01-02 15:04:05 MST"))
	}
	if st.Runner.Paused {
		fmt.Printf("paused after %d consecutive failures; run 'swarmd unpause' to resume\n",
			st.Runner.ConsecutiveFailures)
	}
	return nil
}
