// Package app builds the dependency graph shared by the cmd binaries.
package app

import (
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/database"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/pkg/discord"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/oauth"
	"github.com/qs3c/matcharestock/internal/pkg/payment"
	"github.com/qs3c/matcharestock/internal/pkg/pubsub"
	"github.com/qs3c/matcharestock/internal/pkg/queue"
	"github.com/qs3c/matcharestock/internal/repository"
	"github.com/qs3c/matcharestock/internal/service"
)

// LockKey 通知处理的全局锁
const LockKey = "matcharestock:notifications:lock"

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *brand.Registry
	Queue    *queue.Queue

	Auth          *service.AuthService
	Users         *service.UserService
	Stock         *service.StockService
	Notifications *service.NotificationService
	Subscriptions *service.SubscriptionService
	Billing       *service.BillingService
	Brands        *service.BrandService
}

// New connects to the database and Redis and wires every service.
func New(cfg *config.Config) (*App, error) {
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "driver", cfg.Database.Driver)

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	slog.Info("redis connected", "host", cfg.Redis.Host)

	return Wire(cfg, db, rdb)
}

// Wire builds the services on top of existing connections.
func Wire(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	sender, err := email.NewSender(&cfg.Email)
	if err != nil {
		return nil, err
	}
	emails := email.NewService(sender, cfg.App.SiteURL)
	registry := brand.NewRegistry(cfg.Brands, cfg.Discord.DefaultWebhook)
	q := queue.NewQueue(rdb, cfg.Notifications.Queue)

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentSubscriptionRepository(db)
	subRepo := repository.NewBrandSubscriptionRepository(db)
	stockRepo := repository.NewProductStockRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	eventRepo := repository.NewStripeEventRepository(db)

	fanout := service.NewFanout(emails, cfg.Email.BatchSize, cfg.Email.BatchDelay)
	notifications := service.NewNotificationService(notifRepo, subRepo, registry, fanout, &cfg.Notifications).
		WithDiscord(discord.NewClient(cfg.Discord.Timeout)).
		WithPublisher(pubsub.NewPublisher(rdb)).
		WithLock(queue.NewRunLock(rdb, LockKey, cfg.Notifications.LockTTL))

	dispatcher, err := service.NewDispatcher(cfg.Notifications.DispatchMode, q, notifications)
	if err != nil {
		return nil, err
	}

	billing := service.NewBillingService(userRepo, paymentRepo, eventRepo,
		payment.NewStripeGateway(&cfg.Stripe), cfg.App.SiteURL)

	return &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Registry: registry,
		Queue:    q,
		Auth: service.NewAuthService(userRepo, cfg, emails,
			oauth.NewStateStore(rdb),
			oauth.NewTokenStore(rdb, service.ResetTokenPrefix, service.ResetTokenTTL)),
		Users:         service.NewUserService(userRepo, subRepo),
		Stock:         service.NewStockService(stockRepo, registry, dispatcher),
		Notifications: notifications,
		Subscriptions: service.NewSubscriptionService(subRepo, userRepo, registry, billing, emails),
		Billing:       billing,
		Brands:        service.NewBrandService(registry, cfg.App.AccessCode),
	}, nil
}

// Migrate 自动迁移数据表
func (a *App) Migrate() error {
	if err := database.Migrate(a.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close 关闭数据库和 Redis 连接
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Redis.Close()
}
