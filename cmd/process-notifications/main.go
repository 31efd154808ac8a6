// process-notifications runs a single notification processing pass and
// prints the result. Intended for cron jobs and manual recovery.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/app"
	"github.com/qs3c/matcharestock/internal/pkg/logging"
	"github.com/qs3c/matcharestock/internal/repository"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "only count pending notifications")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log, "process-notifications")

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if *dryRun {
		since := time.Now().UTC().Add(-cfg.Notifications.Window)
		count, err := repository.NewNotificationRepository(a.DB).CountPending(since)
		if err != nil {
			slog.Error("failed to count pending notifications", "error", err)
			os.Exit(1)
		}
		fmt.Printf("[DRY RUN] %d pending notifications since %s\n", count, since.Format(time.RFC3339))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := a.Notifications.ProcessPending(ctx)
	if err != nil {
		slog.Error("notification processing failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	if result.Failures > 0 {
		os.Exit(2)
	}
}
