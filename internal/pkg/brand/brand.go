// Package brand holds the catalog of tracked matcha brands and the
// per-brand notification settings loaded from config.
package brand

import (
	"strings"

	"github.com/qs3c/matcharestock/config"
)

const (
	DefaultEmoji = "🍵"
	DefaultColor = 0x90EE90
)

// Brand 单个品牌的通知配置
type Brand struct {
	Name           string
	Aliases        []string
	DiscordWebhook string
	Emoji          string
	Color          int
	IngestBlocked  bool
	Blends         []config.BlendConfig
}

type Registry struct {
	brands         []*Brand
	byName         map[string]*Brand
	byKey          map[string]*Brand // lower-cased names and aliases
	defaultWebhook string
}

func NewRegistry(brands []config.BrandConfig, defaultWebhook string) *Registry {
	r := &Registry{
		byName:         make(map[string]*Brand, len(brands)),
		byKey:          make(map[string]*Brand, len(brands)*2),
		defaultWebhook: defaultWebhook,
	}

	for _, bc := range brands {
		b := &Brand{
			Name:           bc.Name,
			Aliases:        bc.Aliases,
			DiscordWebhook: bc.DiscordWebhook,
			Emoji:          bc.Emoji,
			Color:          bc.Color,
			IngestBlocked:  bc.IngestBlocked,
			Blends:         bc.Blends,
		}
		if b.Emoji == "" {
			b.Emoji = DefaultEmoji
		}
		if b.Color == 0 {
			b.Color = DefaultColor
		}

		r.brands = append(r.brands, b)
		r.byName[b.Name] = b
		r.byKey[normalize(b.Name)] = b
		for _, alias := range b.Aliases {
			r.byKey[normalize(alias)] = b
		}
	}
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Has 品牌名是否在目录中（大小写敏感）
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup 按名称或别名查找，大小写不敏感
func (r *Registry) Lookup(name string) (*Brand, bool) {
	b, ok := r.byKey[normalize(name)]
	return b, ok
}

// WebhookURL returns the brand's Discord webhook, falling back to the default.
// An empty result means Discord is not configured for the brand.
func (r *Registry) WebhookURL(name string) string {
	if b, ok := r.Lookup(name); ok && b.DiscordWebhook != "" {
		return b.DiscordWebhook
	}
	return r.defaultWebhook
}

// Style returns the emoji and embed color for a brand.
func (r *Registry) Style(name string) (string, int) {
	if b, ok := r.Lookup(name); ok {
		return b.Emoji, b.Color
	}
	return DefaultEmoji, DefaultColor
}

// IngestBlocked 该品牌的爬虫上报是否被暂停
func (r *Registry) IngestBlocked(name string) bool {
	b, ok := r.Lookup(name)
	return ok && b.IngestBlocked
}

// Catalog returns the brands in configuration order.
func (r *Registry) Catalog() []*Brand {
	out := make([]*Brand, len(r.brands))
	copy(out, r.brands)
	return out
}
