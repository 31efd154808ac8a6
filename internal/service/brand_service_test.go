package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/matcharestock/config"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
)

func TestBrandService_Catalog(t *testing.T) {
	registry := brand.NewRegistry([]config.BrandConfig{
		{Name: "Ippodo", Blends: []config.BlendConfig{{Name: "Sayaka", Description: "Bright and smooth"}}},
		{Name: "Marukyu Koyamaen", Emoji: "🌸"},
	}, "")
	svc := NewBrandService(registry, "")

	catalog := svc.Catalog()
	require.Len(t, catalog, 2)
	assert.Equal(t, "Ippodo", catalog[0].Name)
	assert.Equal(t, brand.DefaultEmoji, catalog[0].Emoji)
	require.Len(t, catalog[0].Blends, 1)
	assert.Equal(t, "Sayaka", catalog[0].Blends[0].Name)
	assert.Equal(t, "🌸", catalog[1].Emoji)
	assert.NotNil(t, catalog[1].Blends)
}

func TestBrandService_CheckAccessCode(t *testing.T) {
	registry := brand.NewRegistry(testBrands, "")

	assert.ErrorIs(t, NewBrandService(registry, "").CheckAccessCode("anything"), ErrAccessCodeNotConfigured)

	svc := NewBrandService(registry, "MATCHA2025")
	assert.NoError(t, svc.CheckAccessCode("MATCHA2025"))
	assert.ErrorIs(t, svc.CheckAccessCode("matcha2025"), ErrInvalidAccessCode)
	assert.ErrorIs(t, svc.CheckAccessCode(""), ErrInvalidAccessCode)
}
