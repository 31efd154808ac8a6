package dto

// ToggleSubscriptionRequest PUT /api/subscriptions
type ToggleSubscriptionRequest struct {
	Brand string `json:"brand" binding:"required"`
}

// ToggleSubscriptionResponse 切换后的订阅状态
type ToggleSubscriptionResponse struct {
	Brand    string `json:"brand"`
	IsActive bool   `json:"is_active"`
}

// SubscriptionListResponse GET /api/subscriptions
type SubscriptionListResponse struct {
	Brands []string `json:"brands"`
}

// GrantSubscriptionRequest POST /api/grant-subscription
type GrantSubscriptionRequest struct {
	Brands []string `json:"brands" binding:"required,min=1"`
}

// GrantSubscriptionResponse 授予结果
type GrantSubscriptionResponse struct {
	Activated []string `json:"activated"`
	Already   []string `json:"already_active"`
}
