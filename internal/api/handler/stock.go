package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/response"
	"github.com/qs3c/matcharestock/internal/service"
)

type StockHandler struct {
	stockService *service.StockService
}

func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// Update 接收爬虫上报的库存状态
// POST /api/stock-update
func (h *StockHandler) Update(c *gin.Context) {
	var req dto.StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Products) == 0 {
		response.ParamError(c, "Products array is required")
		return
	}

	result, err := h.stockService.Ingest(c.Request.Context(), req.Products)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// List 商品库存列表，可按品牌过滤
// GET /api/products?brand=
func (h *StockHandler) List(c *gin.Context) {
	products, err := h.stockService.ListProducts(c.Request.Context(), c.Query("brand"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, products)
}
