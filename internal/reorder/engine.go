package reorder

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"restodesk/backend/internal/cache"
	"restodesk/backend/internal/domain"
)

// Engine ranks ingredients worth restocking by comparing a warehouse's
// recent consumption (deduction and writeoff documents) against its on-hand
// stock. Reports are cached briefly so dashboard polling stays cheap.
type Engine struct {
	cache      cache.Cache
	cacheTTL   time.Duration
	coverDays  int
	minUrgency float64
}

func NewEngine(cacheStore cache.Cache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.Noop{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Engine{
		cache:      cacheStore,
		cacheTTL:   cacheTTL,
		coverDays:  7,
		minUrgency: 0.15,
	}
}

func (e *Engine) Suggest(
	ctx context.Context,
	warehouseID string,
	windowDays int,
	onHand []domain.StockLevel,
	consumed map[string]int64,
	ingredients map[string]domain.Ingredient,
) domain.ReorderReport {
	startedAt := time.Now()

	if windowDays < 1 {
		windowDays = 7
	}

	report := domain.ReorderReport{
		WarehouseID: warehouseID,
		WindowDays:  windowDays,
		Suggestions: []domain.ReorderSuggestion{},
	}

	cacheKey := buildCacheKey(warehouseID, windowDays)
	var cached domain.ReorderReport
	if ok, err := e.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
		cached.LatencyMS = time.Since(startedAt).Milliseconds()
		return cached
	}

	onHandByID := make(map[string]int64, len(onHand))
	for _, level := range onHand {
		onHandByID[level.IngredientID] = level.QtyMilli
	}

	for ingID, consumedMilli := range consumed {
		if consumedMilli <= 0 {
			continue
		}
		ing, ok := ingredients[ingID]
		if !ok {
			continue
		}

		dailyRate := float64(consumedMilli) / float64(windowDays)
		current := onHandByID[ingID]
		daysLeft := math.MaxFloat64
		if dailyRate > 0 {
			daysLeft = float64(current) / dailyRate
		}

		urgency := clamp(1-daysLeft/float64(e.coverDays), 0, 1)
		if urgency < e.minUrgency {
			continue
		}

		target := int64(math.Ceil(dailyRate * float64(e.coverDays)))
		suggested := target - current
		if suggested <= 0 {
			continue
		}

		report.Suggestions = append(report.Suggestions, domain.ReorderSuggestion{
			IngredientID:      ingID,
			Name:              ing.Name,
			WarehouseID:       warehouseID,
			OnHandMilli:       current,
			ConsumedMilli:     consumedMilli,
			SuggestedQtyMilli: suggested,
			Urgency:           round2(urgency),
		})
	}

	sort.Slice(report.Suggestions, func(i, j int) bool {
		a, b := report.Suggestions[i], report.Suggestions[j]
		if a.Urgency == b.Urgency {
			return a.Name < b.Name
		}
		return a.Urgency > b.Urgency
	})

	report.LatencyMS = time.Since(startedAt).Milliseconds()
	_ = e.cache.Set(ctx, cacheKey, &report, e.cacheTTL)
	return report
}

func buildCacheKey(warehouseID string, windowDays int) string {
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|%d", warehouseID, windowDays)))
	return "resto:reorder:" + hex.EncodeToString(hash[:])
}

func clamp(val float64, minVal float64, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
