package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/matcharestock/internal/model/dto"
)

func TestBrandHandler_List(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/brands", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var brands []dto.BrandInfo
	decodeData(t, w, &brands)
	require.Len(t, brands, 2)
	assert.Equal(t, "Ippodo", brands[0].Name)
	assert.Equal(t, "Sayaka", brands[0].Blends[0].Name)
}

func TestBrandHandler_CheckAccessCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/access-code", gin.H{"accessCode": "MATCHA"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"valid":true}}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/access-code", gin.H{"accessCode": "matcha"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var data map[string]bool
	decodeData(t, w, &data)
	assert.False(t, data["valid"])

	w = env.do(http.MethodPost, "/api/access-code", "not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
