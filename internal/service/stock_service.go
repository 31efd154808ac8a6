package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qs3c/matcharestock/internal/model"
	"github.com/qs3c/matcharestock/internal/model/dto"
	"github.com/qs3c/matcharestock/internal/pkg/brand"
	"github.com/qs3c/matcharestock/internal/repository"
)

type StockService struct {
	stockRepo  *repository.ProductStockRepository
	registry   *brand.Registry
	dispatcher Dispatcher
	now        func() time.Time
}

func NewStockService(stockRepo *repository.ProductStockRepository, registry *brand.Registry, dispatcher Dispatcher) *StockService {
	return &StockService{
		stockRepo:  stockRepo,
		registry:   registry,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Ingest records a batch of scraper observations and triggers notification
// processing when at least one restock was detected. Per-item problems are
// reported in the result; a dispatch failure is logged only.
func (s *StockService) Ingest(ctx context.Context, products []dto.ProductObservation) (*dto.StockUpdateResult, error) {
	now := s.now().UTC()
	result := &dto.StockUpdateResult{
		Processed: len(products),
		Results:   make([]dto.StockItemResult, 0, len(products)),
		Timestamp: now,
	}

	var restockedBrands []string
	seen := map[string]bool{}

	for i := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs := &products[i]
		item := s.ingestOne(ctx, obs, now)
		result.Results = append(result.Results, item)

		if !item.Success {
			result.Failed++
			continue
		}
		result.Successful++
		if item.WasRestocked {
			result.RestocksDetected++
			if !seen[obs.Brand] {
				seen[obs.Brand] = true
				restockedBrands = append(restockedBrands, obs.Brand)
			}
		}
	}

	if result.RestocksDetected > 0 && s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, restockedBrands, result.RestocksDetected); err != nil {
			// 通知记录已经落库，定时扫描会补发
			slog.Error("failed to dispatch notification processing",
				"restocks", result.RestocksDetected,
				"error", err)
		}
	}

	slog.Info("stock update processed",
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
		"restocks", result.RestocksDetected)

	return result, nil
}

func (s *StockService) ingestOne(ctx context.Context, obs *dto.ProductObservation, now time.Time) dto.StockItemResult {
	item := dto.StockItemResult{Product: fmt.Sprintf("%s - %s", obs.Brand, obs.ProductName)}

	switch {
	case strings.TrimSpace(obs.Brand) == "":
		item.Error = "brand is required"
		return item
	case strings.TrimSpace(obs.ProductName) == "":
		item.Error = "product_name is required"
		return item
	case strings.TrimSpace(obs.StockURL) == "":
		item.Error = "stock_url is required"
		return item
	case s.registry != nil && s.registry.IngestBlocked(obs.Brand):
		slog.Warn("skipping blocked brand", "brand", obs.Brand, "product", obs.ProductName)
		item.Error = fmt.Sprintf("%s updates are temporarily blocked", obs.Brand)
		return item
	}

	priceText, price := ParsePrice(obs.Price)
	row := &model.ProductStock{
		Brand:       obs.Brand,
		ProductName: obs.ProductName,
		StockURL:    strings.TrimSpace(obs.StockURL),
		IsInStock:   obs.IsInStock,
		StockStatus: obs.StockStatus,
		PriceText:   priceText,
		Price:       price,
		Confidence:  obs.Confidence,
		LastChecked: now,
	}

	res, err := s.stockRepo.Observe(ctx, row)
	if err != nil {
		slog.Error("failed to record stock observation",
			"brand", obs.Brand,
			"product", obs.ProductName,
			"url", obs.StockURL,
			"error", err)
		item.Error = "database update error"
		return item
	}

	item.Success = true
	item.Action = res.Action
	item.WasRestocked = res.Restocked
	if res.Restocked {
		slog.Info("restock detected", "brand", obs.Brand, "product", obs.ProductName)
	}
	return item
}

// ParsePrice accepts a JSON string ("$24.00", "¥1,200") or number and
// returns the raw text plus the parsed amount when it is numeric.
func ParsePrice(raw json.RawMessage) (string, decimal.NullDecimal) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", decimal.NullDecimal{}
	}

	text := trimmed
	if strings.HasPrefix(trimmed, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", decimal.NullDecimal{}
		}
	}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return text, decimal.NullDecimal{}
	}
	return text, decimal.NewNullDecimal(d)
}

// ListProducts 列出商品库存，brand 为空时返回全部
func (s *StockService) ListProducts(ctx context.Context, brand string) ([]model.ProductStock, error) {
	return s.stockRepo.List(brand)
}
