// Command aisim runs a field of AI agents that perceive points of interest,
// pick behaviors and execute action plans.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mini-brain/internal/api"
	"github.com/talgya/mini-brain/internal/behavior"
	"github.com/talgya/mini-brain/internal/config"
	"github.com/talgya/mini-brain/internal/engine"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/persistence"
	"github.com/talgya/mini-brain/internal/world"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	frames := flag.Int("frames", 0, "run this many frames headless and exit (0 = real time)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(*configPath, *frames); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("aisim failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, frames int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.Info("configuration loaded",
		"path", configPath,
		"seed", cfg.Seed,
		"agents", cfg.Agents.Count,
		"behaviors", len(cfg.Behaviors),
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── World (regenerated each run, deterministic from seed) ─────────
	w := world.New(entropy.New(cfg.Seed))
	pois := world.ScatterPOIs(w, cfg.GenConfig())
	slog.Info("points of interest placed", "count", len(pois))

	// ── Agents ────────────────────────────────────────────────────────
	agentCfg, err := cfg.AgentConfig()
	if err != nil {
		return err
	}
	for _, b := range agentCfg.Extra {
		if x, ok := b.(*behavior.Expr); ok {
			slog.Info("behavior compiled", "name", x.Name(), "type", x.Type, "expression", x.Source())
		}
	}
	sim := engine.NewSimulation(w)
	brains := sim.Populate(agentCfg)

	applied, err := db.ApplyBrainSettings(brains)
	if err != nil {
		return err
	}
	if prev, err := db.GetMeta("last_frame"); err == nil {
		if f, err := strconv.ParseUint(prev, 10, 64); err == nil {
			slog.Info("previous run found", "frames", humanize.Comma(int64(f)), "settings_restored", applied)
		}
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(cfg.Seed, 10)); err != nil {
		return err
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Frame.Duration
	eng.SetSpeed(cfg.Speed)
	sim.Attach(eng)

	// Auto-save every sim-minute.
	eng.OnMinute = func(frame uint64) {
		sim.TickMinute(frame)
		sim.Write(func() {
			if err := db.SaveSimulation(sim); err != nil {
				slog.Error("minute save failed", "error", err)
			}
		})
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Addr != "" {
		if cfg.API.AdminKey == "" {
			slog.Warn("AISIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Addr:     cfg.API.Addr,
			AdminKey: cfg.API.AdminKey,
		}
		apiServer.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(ctx); err != nil {
				slog.Warn("HTTP API shutdown", "error", err)
			}
		}()
		fmt.Printf("API: http://localhost%s/api/v1/status\n", cfg.API.Addr)
	}

	fmt.Printf("\n%d agents among %d points of interest.\n", len(brains), len(pois))

	// ── Start ─────────────────────────────────────────────────────────
	var runErr error
	if frames > 0 {
		eng.RunFrames(frames)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Println("Starting simulation... (Ctrl+C to stop)")
		runErr = eng.Run(ctx)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	var saveErr error
	sim.Write(func() { saveErr = db.SaveSimulation(sim) })
	if saveErr != nil {
		return fmt.Errorf("final save: %w", saveErr)
	}
	fmt.Printf("Simulation stopped after %s of sim time. State saved.\n",
		engine.SimTime(eng.Frame, eng.Interval))
	return runErr
}
