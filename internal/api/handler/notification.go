package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Process 处理待发送的补货通知
// POST /api/process-notifications
func (h *NotificationHandler) Process(c *gin.Context) {
	result, err := h.notificationService.ProcessPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// NotifyRestock 直接通知某品牌的订阅者
// POST /api/notify-restock
func (h *NotificationHandler) NotifyRestock(c *gin.Context) {
	var req dto.NotifyRestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Brand is required")
		return
	}

	result, err := h.notificationService.NotifyDirect(c.Request.Context(), req.Brand, req.Product, req.ProductURL)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}
