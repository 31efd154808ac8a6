package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Check your inbox to verify your email", resp)
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// VerifyEmail 验证邮箱
// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Email verified", resp)
}

// ForgotPassword 发送重置密码邮件，不暴露邮箱是否存在
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "If the address is registered, a reset link is on its way", nil)
}

// ResetPassword 重置密码
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Password updated", nil)
}

// OAuthRedirect 跳转到第三方授权页
// GET /api/auth/:provider
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	url, err := h.authService.OAuthURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// OAuthCallback 第三方授权回调
// GET /api/auth/:provider/callback
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.ParamError(c, "Missing code or state")
		return
	}

	resp, err := h.authService.OAuthCallback(c.Request.Context(), c.Param("provider"), code, state)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}
