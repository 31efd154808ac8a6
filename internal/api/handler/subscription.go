package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// List 当前用户订阅的品牌
// GET /api/subscriptions
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	brands, err := h.subscriptionService.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if brands == nil {
		brands = []string{}
	}

	response.Success(c, dto.SubscriptionListResponse{Brands: brands})
}

// Toggle 切换品牌订阅
// PUT /api/subscriptions
func (h *SubscriptionHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ToggleSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Brand is required")
		return
	}

	active, err := h.subscriptionService.Toggle(c.Request.Context(), userID, req.Brand)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, dto.ToggleSubscriptionResponse{Brand: req.Brand, IsActive: active})
}

// Grant 一次性开启多个品牌
// POST /api/grant-subscription
func (h *SubscriptionHandler) Grant(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.GrantSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Brands are required")
		return
	}

	resp, err := h.subscriptionService.Grant(c.Request.Context(), userID, req.Brands)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}
