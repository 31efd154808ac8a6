package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/pkg/discord"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/pubsub"
	"github.com/qs3c/matcharestock/internal/repository"
	"github.com/qs3c/matcharestock/internal/testutil"
)

var testBrands = []config.BrandConfig{
	{Name: "Ippodo", Emoji: "🍵", Color: 0x4CAF50, DiscordWebhook: "https://discord.test/ippodo"},
	{Name: "Marukyu Koyamaen", Aliases: []string{"Marukyu"}, Emoji: "🌸", Color: 0xE91E63},
	{Name: "Horii Shichimeien", Aliases: []string{"Horii"}, IngestBlocked: true},
}

type testEnv struct {
	db       *gorm.DB
	sender   *testutil.FakeSender
	emails   *email.Service
	registry *brand.Registry
	gateway  *testutil.FakeGateway

	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentSubscriptionRepository
	subRepo     *repository.BrandSubscriptionRepository
	stockRepo   *repository.ProductStockRepository
	notifRepo   *repository.NotificationRepository
	eventRepo   *repository.StripeEventRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	sender := testutil.NewFakeSender()
	return &testEnv{
		db:          db,
		sender:      sender,
		emails:      email.NewService(sender, "https://matcharestock.test"),
		registry:    brand.NewRegistry(testBrands, ""),
		gateway:     testutil.NewFakeGateway(),
		userRepo:    repository.NewUserRepository(db),
		paymentRepo: repository.NewPaymentSubscriptionRepository(db),
		subRepo:     repository.NewBrandSubscriptionRepository(db),
		stockRepo:   repository.NewProductStockRepository(db),
		notifRepo:   repository.NewNotificationRepository(db),
		eventRepo:   repository.NewStripeEventRepository(db),
	}
}

func (e *testEnv) billing() *BillingService {
	return NewBillingService(e.userRepo, e.paymentRepo, e.eventRepo, e.gateway, "https://matcharestock.test")
}

func (e *testEnv) notifications(batchSize int) *NotificationService {
	fanout := NewFanout(e.emails, batchSize, 0)
	return NewNotificationService(e.notifRepo, e.subRepo, e.registry, fanout, &config.NotificationConfig{
		Window:           time.Hour,
		BrandConcurrency: 2,
	})
}

type fakeDiscord struct {
	mu   sync.Mutex
	sent map[string][]*discord.Message
	err  error
}

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{sent: map[string][]*discord.Message{}}
}

func (d *fakeDiscord) Send(ctx context.Context, webhookURL string, msg *discord.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent[webhookURL] = append(d.sent[webhookURL], msg)
	return d.err
}

func (d *fakeDiscord) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, msgs := range d.sent {
		n += len(msgs)
	}
	return n
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*pubsub.RestockEvent
}

func (p *fakePublisher) PublishRestock(ctx context.Context, event *pubsub.RestockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeLock struct {
	held     bool
	unlocked []string
}

func (l *fakeLock) TryLock(ctx context.Context) (string, bool, error) {
	if l.held {
		return "", false, nil
	}
	return "token-1", true, nil
}

func (l *fakeLock) Unlock(ctx context.Context, token string) error {
	l.unlocked = append(l.unlocked, token)
	return nil
}
