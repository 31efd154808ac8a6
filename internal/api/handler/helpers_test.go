package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/api/middleware"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/jwt"
	"github.com/qs3c/matcharestock/internal/pkg/oauth"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/repository"
	"github.com/qs3c/matcharestock/internal/service"
	"github.com/qs3c/matcharestock/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testJWTSecret     = "test-secret-key"
	testScraperKey    = "scraper-secret"
	testWebhookSecret = "whsec_test_secret"
	testSiteURL       = "https://matcharestock.test"
)

var testBrands = []config.BrandConfig{
	{Name: "Ippodo", Blends: []config.BlendConfig{{Name: "Sayaka"}}},
	{Name: "Marukyu Koyamaen", Aliases: []string{"Marukyu"}},
}

type testEnv struct {
	db      *gorm.DB
	sender  *testutil.FakeSender
	gateway *testutil.FakeGateway
	router  *gin.Engine

	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentSubscriptionRepository
	notifRepo   *repository.NotificationRepository
	stockRepo   *repository.ProductStockRepository
}

// newTestEnv wires every handler with real services over sqlite and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		JWT:     config.JWTConfig{Secret: testJWTSecret, ExpireHours: 24},
		App:     config.AppConfig{SiteURL: testSiteURL, AccessCode: "MATCHA"},
		Scraper: config.ScraperConfig{APIKey: testScraperKey},
		Stripe:  config.StripeConfig{WebhookSecret: testWebhookSecret},
	}

	sender := testutil.NewFakeSender()
	emails := email.NewService(sender, testSiteURL)
	registry := brand.NewRegistry(testBrands, "")
	gateway := testutil.NewFakeGateway()

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentSubscriptionRepository(db)
	subRepo := repository.NewBrandSubscriptionRepository(db)
	stockRepo := repository.NewProductStockRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	eventRepo := repository.NewStripeEventRepository(db)

	billing := service.NewBillingService(userRepo, paymentRepo, eventRepo, gateway, testSiteURL)
	notifications := service.NewNotificationService(notifRepo, subRepo, registry,
		service.NewFanout(emails, config.MaxEmailBatchSize, 0),
		&config.NotificationConfig{Window: time.Hour, BrandConcurrency: 1})
	inline, err := service.NewDispatcher(service.DispatchInline, nil, notifications)
	require.NoError(t, err)

	auth := NewAuthHandler(service.NewAuthService(userRepo, cfg, emails,
		oauth.NewStateStore(rdb),
		oauth.NewTokenStore(rdb, service.ResetTokenPrefix, service.ResetTokenTTL)))
	user := NewUserHandler(service.NewUserService(userRepo, subRepo), billing)
	stock := NewStockHandler(service.NewStockService(stockRepo, registry, inline))
	notif := NewNotificationHandler(notifications)
	subs := NewSubscriptionHandler(service.NewSubscriptionService(subRepo, userRepo, registry, billing, emails))
	bill := NewBillingHandler(billing, testWebhookSecret)
	brands := NewBrandHandler(service.NewBrandService(registry, cfg.App.AccessCode))

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/verify-email", auth.VerifyEmail)
	api.POST("/auth/forgot-password", auth.ForgotPassword)
	api.POST("/auth/reset-password", auth.ResetPassword)
	api.GET("/auth/:provider", auth.OAuthRedirect)
	api.GET("/auth/:provider/callback", auth.OAuthCallback)
	api.GET("/products", stock.List)
	api.GET("/brands", brands.List)
	api.POST("/access-code", brands.CheckAccessCode)
	api.POST("/webhooks/stripe", bill.Webhook)

	scraper := api.Group("", middleware.ScraperKey(testScraperKey))
	scraper.POST("/stock-update", stock.Update)
	scraper.POST("/process-notifications", notif.Process)
	scraper.POST("/notify-restock", notif.NotifyRestock)

	session := api.Group("", middleware.Auth(testJWTSecret))
	session.GET("/subscriptions", subs.List)
	session.PUT("/subscriptions", subs.Toggle)
	session.POST("/grant-subscription", subs.Grant)
	session.POST("/create-checkout-session", bill.CreateCheckout)
	session.POST("/create-customer-portal", bill.CreatePortal)
	session.GET("/payment-subscription-status", bill.Status)
	session.GET("/payment-subscription", bill.PaymentSubscription)
	session.DELETE("/delete-account", user.DeleteAccount)
	session.GET("/user/profile", user.GetProfile)

	return &testEnv{
		db:          db,
		sender:      sender,
		gateway:     gateway,
		router:      r,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		notifRepo:   notifRepo,
		stockRepo:   stockRepo,
	}
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, testJWTSecret, 1)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) authed(t *testing.T, method, path string, userID int64, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, map[string]string{"Authorization": "Bearer " + tokenFor(t, userID)})
}

func (e *testEnv) scraper(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, map[string]string{middleware.APIKeyHeader: testScraperKey})
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData 将响应 data 字段解码到 out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}
