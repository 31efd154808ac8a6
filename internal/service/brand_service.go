package service

import (
	"crypto/subtle"

	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
)

type BrandService struct {
	registry   *brand.Registry
	accessCode string
}

func NewBrandService(registry *brand.Registry, accessCode string) *BrandService {
	return &BrandService{registry: registry, accessCode: accessCode}
}

// Catalog 返回可订阅的品牌及其抹茶品种
func (s *BrandService) Catalog() []dto.BrandInfo {
	brands := s.registry.Catalog()
	out := make([]dto.BrandInfo, 0, len(brands))
	for _, b := range brands {
		info := dto.BrandInfo{Name: b.Name, Emoji: b.Emoji, Blends: []dto.BlendInfo{}}
		for _, bl := range b.Blends {
			info.Blends = append(info.Blends, dto.BlendInfo{Name: bl.Name, Description: bl.Description})
		}
		out = append(out, info)
	}
	return out
}

// CheckAccessCode validates the early-access code shown on the pricing page.
func (s *BrandService) CheckAccessCode(code string) error {
	if s.accessCode == "" {
		return ErrAccessCodeNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) != 1 {
		return ErrInvalidAccessCode
	}
	return nil
}
