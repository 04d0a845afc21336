// Command gardener runs the brain steward for aisim.
// It observes a running simulation, traces brains that keep failing or never
// decide, and untraces them once they recover.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/talgya/mini-brain/internal/gardener"
)

func main() {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	// Configuration from environment.
	apiURL := envOrDefault("AISIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("AISIM_ADMIN_KEY")
	memoryPath := envOrDefault("GARDENER_MEMORY", "gardener_memory.json")
	intervalSec := envIntOrDefault("GARDENER_INTERVAL", 60)

	if adminKey == "" {
		slog.Error("AISIM_ADMIN_KEY is required")
		os.Exit(1)
	}

	interval := time.Duration(intervalSec) * time.Second
	slog.Info("gardener starting", "api_url", apiURL, "interval", interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := gardener.NewObserver(apiURL)
	actor := gardener.NewActor(apiURL, adminKey)
	mem := gardener.LoadMemory(memoryPath)

	slog.Info("waiting for aisim API...")
	if !waitForAPI(ctx, observer) {
		slog.Error("aisim API did not become ready")
		os.Exit(1)
	}

	cycle := func() {
		if _, err := gardener.RunCycle(ctx, observer, actor, mem); err != nil {
			slog.Error("gardener cycle failed", "error", err)
			return
		}
		if err := mem.Save(memoryPath); err != nil {
			slog.Error("save memory failed", "error", err)
		}
	}

	// Run first cycle immediately.
	cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cycle()
		case <-ctx.Done():
			slog.Info("shutting down")
			fmt.Println("Gardener stopped.")
			return
		}
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Gives up after 5 minutes or when ctx is done.
func waitForAPI(ctx context.Context, observer *gardener.Observer) bool {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		if observer.Ready(ctx) {
			slog.Info("aisim API is ready")
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		slog.Info("aisim not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
