package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/app"
	"github.com/qs3c/matcharestock/internal/pkg/cron"
	"github.com/qs3c/matcharestock/internal/pkg/logging"
	"github.com/qs3c/matcharestock/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log, "worker")

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 定时扫描，兜底处理队列消息丢失或发送失败的通知
	var sweeper *cron.Service
	if cfg.Notifications.SweepInterval > 0 {
		sweeper = cron.NewService(a.Notifications, cfg.Notifications.SweepInterval)
		sweeper.Start()
	}

	slog.Info("worker started",
		"max_workers", cfg.Notifications.MaxWorkers,
		"queue", cfg.Notifications.Queue,
		"sweep_interval", cfg.Notifications.SweepInterval)

	worker.Run(ctx, a.Queue, worker.NewProcessor(a.Notifications), cfg.Notifications.MaxWorkers, 5*time.Second)

	if sweeper != nil {
		sweeper.Stop()
	}
	slog.Info("worker shutdown complete")
}
