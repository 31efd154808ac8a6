package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/api"
	"github.com/qs3c/matcharestock/internal/api/handler"
	"github.com/qs3c/matcharestock/internal/app"
	"github.com/qs3c/matcharestock/internal/pkg/logging"
	"github.com/qs3c/matcharestock/internal/pkg/pubsub"
	"github.com/qs3c/matcharestock/internal/pkg/ws"
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
	logging.Setup(cfg.Log, "server")

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Migrate(); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 补货事件通过 Redis 转发给 WebSocket 客户端
	hub := ws.NewHub()
	go relayRestocks(ctx, pubsub.NewSubscriber(a.Redis), hub)

	router := api.NewRouter(&api.Handlers{
		Auth:         handler.NewAuthHandler(a.Auth),
		User:         handler.NewUserHandler(a.Users, a.Billing),
		Stock:        handler.NewStockHandler(a.Stock),
		Notification: handler.NewNotificationHandler(a.Notifications),
		Subscription: handler.NewSubscriptionHandler(a.Subscriptions),
		Billing:      handler.NewBillingHandler(a.Billing, cfg.Stripe.WebhookSecret),
		Brand:        handler.NewBrandHandler(a.Brands),
		WebSocket:    handler.NewWebSocketHandler(hub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
	}, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// relayRestocks 订阅补货事件并推送给在线用户，断线后自动重连
func relayRestocks(ctx context.Context, sub *pubsub.Subscriber, hub *ws.Hub) {
	for {
		err := sub.Subscribe(ctx, func(event *pubsub.RestockEvent) {
			if len(event.UserIDs) == 0 {
				return
			}
			n, err := hub.SendToUsers(event.UserIDs, &ws.Message{Type: ws.TypeRestock, Data: event})
			if err != nil {
				slog.Warn("failed to push restock event", "brand", event.Brand, "error", err)
				return
			}
			slog.Debug("restock event pushed", "brand", event.Brand, "connections", n)
		})
		if ctx.Err() != nil {
			return
		}
		slog.Warn("restock subscription ended, retrying", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}
