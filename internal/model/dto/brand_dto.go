package dto

// BlendInfo 单个抹茶品种
type BlendInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// BrandInfo GET /api/brands
type BrandInfo struct {
	Name   string      `json:"name"`
	Emoji  string      `json:"emoji,omitempty"`
	Blends []BlendInfo `json:"blends"`
}

// AccessCodeRequest POST /api/access-code
type AccessCodeRequest struct {
	Code string `json:"accessCode"`
}
