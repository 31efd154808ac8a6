package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/model"
	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/pkg/discord"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/pubsub"
	"github.com/qs3c/matcharestock/internal/repository"
)

// RestockPublisher broadcasts restock events to live dashboards.
type RestockPublisher interface {
	PublishRestock(ctx context.Context, event *pubsub.RestockEvent) error
}

// RunLocker keeps two processing passes from running at once.
type RunLocker interface {
	TryLock(ctx context.Context) (token string, ok bool, err error)
	Unlock(ctx context.Context, token string) error
}

// DiscordSender posts webhook messages.
type DiscordSender interface {
	Send(ctx context.Context, webhookURL string, msg *discord.Message) error
}

// BrandGroup 同一品牌的待发送通知
type BrandGroup struct {
	Brand string
	Rows  []model.RestockNotification
}

type NotificationService struct {
	notifRepo   *repository.NotificationRepository
	subRepo     *repository.BrandSubscriptionRepository
	registry    *brand.Registry
	fanout      *Fanout
	discord     DiscordSender
	publisher   RestockPublisher
	lock        RunLocker
	window      time.Duration
	concurrency int
	now         func() time.Time
}

func NewNotificationService(
	notifRepo *repository.NotificationRepository,
	subRepo *repository.BrandSubscriptionRepository,
	registry *brand.Registry,
	fanout *Fanout,
	cfg *config.NotificationConfig,
) *NotificationService {
	window := cfg.Window
	if window <= 0 {
		window = time.Hour
	}
	concurrency := cfg.BrandConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationService{
		notifRepo:   notifRepo,
		subRepo:     subRepo,
		registry:    registry,
		fanout:      fanout,
		window:      window,
		concurrency: concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) WithDiscord(d DiscordSender) *NotificationService {
	s.discord = d
	return s
}

func (s *NotificationService) WithPublisher(p RestockPublisher) *NotificationService {
	s.publisher = p
	return s
}

func (s *NotificationService) WithLock(l RunLocker) *NotificationService {
	s.lock = l
	return s
}

// ProcessPending sends every unsent notification created within the window.
// Brands are processed in parallel; batches within a brand are sequential.
func (s *NotificationService) ProcessPending(ctx context.Context) (*dto.ProcessResult, error) {
	result := &dto.ProcessResult{
		RunID:     uuid.NewString(),
		Results:   []dto.BrandResult{},
		Timestamp: s.now().UTC(),
	}
	logger := slog.With("run_id", result.RunID)

	if s.lock != nil {
		token, ok, err := s.lock.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire notification lock: %w", err)
		}
		if !ok {
			logger.Info("another notification run is in progress, skipping")
			result.Skipped = true
			return result, nil
		}
		defer func() {
			// 使用独立的 context，避免请求取消后锁无法释放
			if err := s.lock.Unlock(context.Background(), token); err != nil {
				logger.Warn("failed to release notification lock", "error", err)
			}
		}()
	}

	rows, err := s.notifRepo.ListPending(ctx, s.now().UTC().Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("load pending notifications: %w", err)
	}
	result.TotalPending = len(rows)
	if len(rows) == 0 {
		logger.Info("no pending notifications")
		return result, nil
	}

	groups := GroupByBrand(rows)
	logger.Info("processing pending notifications", "pending", len(rows), "brands", len(groups))

	results := make([]dto.BrandResult, len(groups))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range groups {
		i := i
		g.Go(func() error {
			results[i] = s.processBrand(ctx, &groups[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Success {
			result.BrandsNotified++
		} else {
			result.Failures++
		}
	}
	result.Results = results

	logger.Info("notification processing complete",
		"total_pending", result.TotalPending,
		"brands_notified", result.BrandsNotified,
		"failures", result.Failures)
	return result, nil
}

func (s *NotificationService) processBrand(ctx context.Context, group *BrandGroup) dto.BrandResult {
	deduped := DedupeProducts(group.Rows)
	ids := make([]int64, 0, len(group.Rows))
	for _, r := range group.Rows {
		ids = append(ids, r.ID)
	}
	products := make([]email.Product, 0, len(deduped))
	names := make([]string, 0, len(deduped))
	for _, r := range deduped {
		products = append(products, email.Product{Name: r.ProductName, URL: r.ProductURL})
		names = append(names, r.ProductName)
	}

	res := dto.BrandResult{Brand: group.Brand, Products: names}
	logger := slog.With("brand", group.Brand)

	recipients, err := s.subRepo.ListActiveEmails(group.Brand)
	if err != nil {
		logger.Error("failed to load subscribers", "error", err)
		res.Error = "failed to load subscribers"
		s.markFailed(ctx, logger, ids)
		return res
	}

	if len(recipients) == 0 {
		logger.Info("no active subscribers")
		if err := s.notifRepo.MarkSent(ctx, ids, 0, s.now().UTC()); err != nil {
			logger.Error("failed to mark notifications sent", "error", err)
			res.Error = "failed to mark notifications sent"
			return res
		}
		res.Success = true
		return res
	}

	batch := s.fanout.Send(ctx, group.Brand, products, recipients)
	res.ErrorCount = batch.Failed
	if batch.Outright() {
		logger.Error("restock email dispatch failed", "recipients", len(recipients), "error", batch.Err)
		res.Error = batch.Err.Error()
		s.markFailed(ctx, logger, ids)
		return res
	}
	res.Notified = batch.Notified
	res.Success = true

	s.NotifyDiscord(ctx, group.Brand, products)

	if err := s.notifRepo.MarkSent(ctx, ids, batch.Notified, s.now().UTC()); err != nil {
		logger.Error("failed to mark notifications sent", "error", err)
	}
	logger.Info("brand notified",
		"products", len(products),
		"notified", batch.Notified,
		"failed", batch.Failed,
		"batches", batch.Batches)

	s.publish(ctx, group.Brand, products, batch.Notified)
	return res
}

func (s *NotificationService) markFailed(ctx context.Context, logger *slog.Logger, ids []int64) {
	if err := s.notifRepo.MarkFailed(ctx, ids); err != nil {
		logger.Error("failed to reset notifications", "error", err)
	}
}

// NotifyDiscord posts the restock summary for a brand. Every failure is
// logged and swallowed.
func (s *NotificationService) NotifyDiscord(ctx context.Context, brandName string, products []email.Product) {
	if s.discord == nil || s.registry == nil {
		return
	}
	webhook := s.registry.WebhookURL(brandName)
	if webhook == "" {
		slog.Debug("no discord webhook configured", "brand", brandName)
		return
	}

	emoji, color := s.registry.Style(brandName)
	items := make([]discord.Product, 0, len(products))
	for _, p := range products {
		items = append(items, discord.Product{Name: p.Name, URL: p.URL})
	}
	msg := discord.RestockMessage(brandName, emoji, color, items, s.now())
	if err := s.discord.Send(ctx, webhook, msg); err != nil {
		slog.Warn("discord notification failed", "brand", brandName, "error", err)
	}
}

func (s *NotificationService) publish(ctx context.Context, brandName string, products []email.Product, notified int) {
	if s.publisher == nil {
		return
	}
	userIDs, err := s.subRepo.ListActiveUserIDs(brandName)
	if err != nil {
		slog.Warn("failed to load subscriber ids for restock event", "brand", brandName, "error", err)
		return
	}
	items := make([]pubsub.RestockProduct, 0, len(products))
	for _, p := range products {
		items = append(items, pubsub.RestockProduct{Name: p.Name, URL: p.URL})
	}
	event := &pubsub.RestockEvent{
		Brand:      brandName,
		Products:   items,
		Notified:   notified,
		UserIDs:    userIDs,
		DetectedAt: s.now(),
	}
	if err := s.publisher.PublishRestock(ctx, event); err != nil {
		slog.Warn("failed to publish restock event", "brand", brandName, "error", err)
	}
}

// NotifyDirect emails a brand's subscribers immediately without going
// through the stock table, and records an already-sent notification row.
func (s *NotificationService) NotifyDirect(ctx context.Context, brandName, product, productURL string) (*dto.NotifyRestockResult, error) {
	result := &dto.NotifyRestockResult{Brand: brandName, Product: product}

	recipients, err := s.subRepo.ListActiveEmails(brandName)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	result.TotalSubscribers = len(recipients)
	if len(recipients) == 0 {
		slog.Info("no active subscribers for direct notification", "brand", brandName)
		return result, nil
	}

	var products []email.Product
	if product != "" {
		products = []email.Product{{Name: product, URL: productURL}}
	}
	batch := s.fanout.Send(ctx, brandName, products, recipients)
	result.Notified = batch.Notified

	now := s.now().UTC()
	row := &model.RestockNotification{
		Brand:               brandName,
		ProductName:         product,
		ProductURL:          productURL,
		EmailSent:           true,
		SubscribersNotified: batch.Notified,
		CreatedAt:           now,
		SentAt:              &now,
	}
	if err := s.notifRepo.Create(row); err != nil {
		slog.Error("failed to log direct restock notification", "brand", brandName, "error", err)
	}

	slog.Info("direct restock notification sent",
		"brand", brandName,
		"product", product,
		"notified", batch.Notified,
		"subscribers", len(recipients))
	return result, nil
}

// GroupByBrand groups rows by brand in order of first appearance.
func GroupByBrand(rows []model.RestockNotification) []BrandGroup {
	var groups []BrandGroup
	index := map[string]int{}
	for _, r := range rows {
		i, ok := index[r.Brand]
		if !ok {
			i = len(groups)
			index[r.Brand] = i
			groups = append(groups, BrandGroup{Brand: r.Brand})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// DedupeProducts keeps the first row for each normalized (brand, url) key.
func DedupeProducts(rows []model.RestockNotification) []model.RestockNotification {
	seen := make(map[string]bool, len(rows))
	out := make([]model.RestockNotification, 0, len(rows))
	for _, r := range rows {
		key := dedupeKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func dedupeKey(r model.RestockNotification) string {
	id := r.ProductURL
	if id == "" {
		id = r.ProductName
	}
	return strings.ToLower(r.Brand) + "::" + strings.ToLower(id)
}
