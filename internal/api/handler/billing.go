package handler

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/payment"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type BillingHandler struct {
	billingService *service.BillingService
	webhookSecret  string
}

func NewBillingHandler(billingService *service.BillingService, webhookSecret string) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		webhookSecret:  webhookSecret,
	}
}

// CreateCheckout 创建 Stripe 结账会话
// POST /api/create-checkout-session
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	url, err := h.billingService.CreateCheckout(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, dto.SessionURLResponse{URL: url})
}

// CreatePortal 打开 Stripe 账单门户
// POST /api/create-customer-portal
func (h *BillingHandler) CreatePortal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	url, err := h.billingService.CreatePortal(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, dto.SessionURLResponse{URL: url})
}

// Status 订阅是否有效
// GET /api/payment-subscription-status
func (h *BillingHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.billingService.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, status)
}

// PaymentSubscription 原始订阅记录
// GET /api/payment-subscription
func (h *BillingHandler) PaymentSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := h.billingService.PaymentSubscription(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, sub)
}

// Webhook receives Stripe events. A bad signature is a 400; a handling
// failure is a 500 so Stripe retries the delivery.
// POST /api/webhooks/stripe
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, payment.MaxWebhookBodyBytes))
	if err != nil {
		response.ParamError(c, "Failed to read request body")
		return
	}

	event, err := payment.ParseEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		slog.Warn("stripe webhook rejected", "error", err)
		response.ParamError(c, "Invalid signature")
		return
	}

	if err := h.billingService.HandleEvent(c.Request.Context(), event); err != nil {
		slog.Error("stripe webhook handler failed",
			"event_id", event.ID,
			"type", event.Type,
			"error", err)
		response.ServerError(c, "Webhook handler failed")
		return
	}

	response.Success(c, gin.H{"received": true})
}
