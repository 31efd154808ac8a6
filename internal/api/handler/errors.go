package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/api/middleware"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

// writeError 将服务层错误映射为统一响应
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownBrand),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrInvalidVerifyCode),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrInvalidOAuthState):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrInvalidAccessCode):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrSubscriptionRequired):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNoPaymentSubscription),
		errors.Is(err, service.ErrOAuthNotConfigured):
		response.NotFoundError(c, err.Error())
	default:
		slog.Error("request failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"path", c.Request.URL.Path,
			"error", err)
		response.ServerError(c, "")
	}
}

// currentUser 读取认证中间件写入的用户 ID
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "Unauthorized")
	}
	return userID, ok
}
