package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type UserHandler struct {
	userService    *service.UserService
	billingService *service.BillingService
}

func NewUserHandler(userService *service.UserService, billingService *service.BillingService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		billingService: billingService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// DeleteAccount 注销账号，同时取消 Stripe 订阅
// DELETE /api/delete-account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.billingService.DeleteAccount(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Account deleted successfully", nil)
}
