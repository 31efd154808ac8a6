package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/jwt"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/testutil"
)

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/register", gin.H{"email": "new@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reg dto.RegisterResponse
	decodeData(t, w, &reg)
	assert.NotZero(t, reg.UserID)

	w = env.do(http.MethodPost, "/api/auth/register", gin.H{"email": "new@example.com", "password": "password123"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "new@example.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login dto.LoginResponse
	decodeData(t, w, &login)
	claims, err := jwt.ParseToken(login.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, claims.UserID)

	w = env.do(http.MethodPost, "/api/auth/login", gin.H{"email": "new@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"invalid email", gin.H{"email": "not-an-email", "password": "password123"}},
		{"short password", gin.H{"email": "a@example.com", "password": "short"}},
		{"missing password", gin.H{"email": "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
		})
	}
}

func TestAuthHandler_VerifyEmail_InvalidCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/verify-email", gin.H{"code": "invalid-code"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	testutil.TestUser(t, env.db, testutil.WithEmail("forgot@example.com"))

	w := env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "forgot@example.com"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.sender.SentTo("forgot@example.com"), 1)

	// 未注册的邮箱返回相同结果
	w = env.do(http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "ghost@example.com"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/auth/reset-password", gin.H{"token": "bogus", "password": "new-password"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_OAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/auth/github", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "provider without credentials")

	w = env.do(http.MethodGet, "/api/auth/github/callback", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=forged", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
