package dto

import "time"

// ProcessRequest POST /api/process-notifications
type ProcessRequest struct {
	APIKey string `json:"apiKey,omitempty"`
}

// BrandResult 单个品牌的通知结果
type BrandResult struct {
	Brand      string   `json:"brand"`
	Products   []string `json:"products"`
	Success    bool     `json:"success"`
	Notified   int      `json:"notified"`
	ErrorCount int      `json:"error_count"`
	Error      string   `json:"error,omitempty"`
}

// ProcessResult 一次通知处理的汇总
type ProcessResult struct {
	RunID          string        `json:"run_id"`
	TotalPending   int           `json:"total_pending"`
	BrandsNotified int           `json:"brands_notified"`
	Failures       int           `json:"failures"`
	Skipped        bool          `json:"skipped,omitempty"` // another run held the lock
	Results        []BrandResult `json:"results"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NotifyRestockRequest POST /api/notify-restock
type NotifyRestockRequest struct {
	Brand      string `json:"brand" binding:"required"`
	Product    string `json:"product"`
	ProductURL string `json:"productUrl"`
	APIKey     string `json:"apiKey,omitempty"`
}

// NotifyRestockResult 直接触发通知的结果
type NotifyRestockResult struct {
	Brand            string `json:"brand"`
	Product          string `json:"product,omitempty"`
	Notified         int    `json:"notified"`
	TotalSubscribers int    `json:"total_subscribers"`
}
