package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/api/handler"
	"github.com/qs3c/matcharestock/internal/api/middleware"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Stock        *handler.StockHandler
	Notification *handler.NotificationHandler
	Subscription *handler.SubscriptionHandler
	Billing      *handler.BillingHandler
	Brand        *handler.BrandHandler
	WebSocket    *handler.WebSocketHandler
}

type Router struct {
	h   *Handlers
	cfg *config.Config
}

func NewRouter(h *Handlers, cfg *config.Config) *Router {
	return &Router{h: h, cfg: cfg}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// WebSocket
		api.GET("/ws", r.h.WebSocket.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.h.Auth.Register)
			auth.POST("/login", r.h.Auth.Login)
			auth.POST("/verify-email", r.h.Auth.VerifyEmail)
			auth.POST("/forgot-password", r.h.Auth.ForgotPassword)
			auth.POST("/reset-password", r.h.Auth.ResetPassword)
			auth.GET("/:provider", r.h.Auth.OAuthRedirect)
			auth.GET("/:provider/callback", r.h.Auth.OAuthCallback)
		}

		// 公开接口 - 目录
		api.GET("/brands", r.h.Brand.List)
		api.GET("/products", r.h.Stock.List)
		api.POST("/access-code", r.h.Brand.CheckAccessCode)

		// Stripe 回调，签名在处理器中校验
		api.POST("/webhooks/stripe", r.h.Billing.Webhook)

		// 爬虫接口
		scraper := api.Group("")
		scraper.Use(middleware.ScraperKey(r.cfg.Scraper.APIKey))
		{
			scraper.POST("/stock-update", r.h.Stock.Update)
			scraper.POST("/process-notifications", r.h.Notification.Process)
			scraper.POST("/notify-restock", r.h.Notification.NotifyRestock)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/user/profile", r.h.User.GetProfile)
			authenticated.DELETE("/delete-account", r.h.User.DeleteAccount)

			authenticated.GET("/subscriptions", r.h.Subscription.List)
			authenticated.PUT("/subscriptions", r.h.Subscription.Toggle)
			authenticated.POST("/grant-subscription", r.h.Subscription.Grant)

			authenticated.POST("/create-checkout-session", r.h.Billing.CreateCheckout)
			authenticated.POST("/create-customer-portal", r.h.Billing.CreatePortal)
			authenticated.GET("/payment-subscription-status", r.h.Billing.Status)
			authenticated.GET("/payment-subscription", r.h.Billing.PaymentSubscription)
		}
	}

	return engine
}
