package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type BrandHandler struct {
	brandService *service.BrandService
}

func NewBrandHandler(brandService *service.BrandService) *BrandHandler {
	return &BrandHandler{brandService: brandService}
}

// List 可订阅的品牌目录
// GET /api/brands
func (h *BrandHandler) List(c *gin.Context) {
	response.Success(c, h.brandService.Catalog())
}

// CheckAccessCode 校验内测访问码
// POST /api/access-code
func (h *BrandHandler) CheckAccessCode(c *gin.Context) {
	var req dto.AccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid request")
		return
	}

	err := h.brandService.CheckAccessCode(req.Code)
	switch {
	case err == nil:
		response.Success(c, gin.H{"valid": true})
	case errors.Is(err, service.ErrInvalidAccessCode):
		response.ErrorWithData(c, response.CodeAuthFailed, err.Error(), gin.H{"valid": false})
	default:
		response.ServerError(c, err.Error())
	}
}
