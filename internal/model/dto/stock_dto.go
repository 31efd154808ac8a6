package dto

import (
	"encoding/json"
	"time"
)

// ProductObservation 爬虫上报的单个商品状态
type ProductObservation struct {
	Brand       string          `json:"brand"`
	ProductName string          `json:"product_name"`
	IsInStock   bool            `json:"is_in_stock"`
	StockStatus string          `json:"stock_status,omitempty"`
	StockURL    string          `json:"stock_url"`
	Price       json.RawMessage `json:"price,omitempty"` // string or number
	Confidence  *float64        `json:"confidence,omitempty"`
}

// StockUpdateRequest POST /api/stock-update
type StockUpdateRequest struct {
	Products []ProductObservation `json:"products" binding:"required,min=1"`
	APIKey   string               `json:"apiKey,omitempty"`
}

// StockItemResult 单个商品的处理结果
type StockItemResult struct {
	Product      string `json:"product"`
	Success      bool   `json:"success"`
	Action       string `json:"action,omitempty"` // created, updated
	WasRestocked bool   `json:"was_restocked"`
	Error        string `json:"error,omitempty"`
}

// StockUpdateResult 批量上报结果
type StockUpdateResult struct {
	Processed        int               `json:"processed"`
	Successful       int               `json:"successful"`
	Failed           int               `json:"failed"`
	RestocksDetected int               `json:"restocks_detected"`
	Results          []StockItemResult `json:"results"`
	Timestamp        time.Time         `json:"timestamp"`
}
