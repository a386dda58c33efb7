// Package metrics derives stock movement figures from validated inventory rows.
// Every function is pure: inputs are never mutated and nothing is cached.
package metrics

import (
	"sort"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
)

const (
	// DefaultLowStockThreshold flags models holding fewer units than this.
	DefaultLowStockThreshold = 5
	// DefaultTopTurnoverLimit caps the turnover ranking.
	DefaultTopTurnoverLimit = 5
)

// Options holds the configurable inputs of the engine.
type Options struct {
	LowStockThreshold float64
	TopTurnoverLimit  int
}

// DefaultOptions returns the stock thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		LowStockThreshold: DefaultLowStockThreshold,
		TopTurnoverLimit:  DefaultTopTurnoverLimit,
	}
}

// Engine computes the full metric set with a fixed set of options.
type Engine struct {
	opts Options
}

// NewEngine builds an engine. A non-positive ranking limit falls back to the default.
func NewEngine(opts Options) *Engine {
	if opts.TopTurnoverLimit <= 0 {
		opts.TopTurnoverLimit = DefaultTopTurnoverLimit
	}
	return &Engine{opts: opts}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Compute runs every operation over items.
func (e *Engine) Compute(items []models.StockItem) models.Metrics {
	m := models.Metrics{
		RowCount:             len(items),
		LowStockThreshold:    e.opts.LowStockThreshold,
		TotalIn:              TotalIn(items),
		TotalOut:             TotalOut(items),
		Depletion:            Depletion(items),
		ModelMovement:        MovementByModel(items),
		CategoryMovement:     MovementByCategory(items),
		CategoryDistribution: DistributionByCategory(items),
		Turnover:             Turnover(items),
		TopTurnover:          TopTurnover(items, e.opts.TopTurnoverLimit),
		OutExceedsIn:         OutExceedsIn(items),
		LowStock:             LowStock(items, e.opts.LowStockThreshold),
	}
	if avg, ok := AverageDepletion(items); ok {
		m.AverageDepletion = &avg
	}
	return m
}

// Depletion returns Opening Balance minus Closing Balance for every row.
func Depletion(items []models.StockItem) []models.DepletionEntry {
	out := make([]models.DepletionEntry, 0, len(items))
	for _, item := range items {
		out = append(out, models.DepletionEntry{
			Row:       item.Row,
			Model:     item.Model,
			Depletion: item.Depletion(),
		})
	}
	return out
}

// AverageDepletion returns the mean depletion. ok is false for an empty dataset.
func AverageDepletion(items []models.StockItem) (avg float64, ok bool) {
	if len(items) == 0 {
		return 0, false
	}
	var total float64
	for _, item := range items {
		total += item.Depletion()
	}
	return total / float64(len(items)), true
}

// TotalIn sums units received.
func TotalIn(items []models.StockItem) float64 {
	var total float64
	for _, item := range items {
		total += item.In
	}
	return total
}

// TotalOut sums units issued.
func TotalOut(items []models.StockItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Out
	}
	return total
}

// MovementByModel lists opening, received, issued and closing units for every row.
func MovementByModel(items []models.StockItem) []models.ModelMovement {
	out := make([]models.ModelMovement, 0, len(items))
	for i, item := range items {
		out = append(out, models.ModelMovement{
			Index:          i,
			Row:            item.Row,
			Model:          item.Model,
			OpeningBalance: item.OpeningBalance,
			In:             item.In,
			Out:            item.Out,
			ClosingBalance: item.ClosingBalance,
		})
	}
	return out
}

// MovementByCategory sums In and Out per category, in first-seen category order.
func MovementByCategory(items []models.StockItem) []models.CategoryMovement {
	index := make(map[string]int)
	out := make([]models.CategoryMovement, 0)
	for _, item := range items {
		pos, ok := index[item.Category]
		if !ok {
			pos = len(out)
			index[item.Category] = pos
			out = append(out, models.CategoryMovement{Category: item.Category})
		}
		out[pos].In += item.In
		out[pos].Out += item.Out
	}
	return out
}

// DistributionByCategory sums Closing Balance per category, in first-seen category order.
func DistributionByCategory(items []models.StockItem) []models.CategoryStock {
	index := make(map[string]int)
	out := make([]models.CategoryStock, 0)
	for _, item := range items {
		pos, ok := index[item.Category]
		if !ok {
			pos = len(out)
			index[item.Category] = pos
			out = append(out, models.CategoryStock{Category: item.Category})
		}
		out[pos].ClosingBalance += item.ClosingBalance
	}
	return out
}

// Turnover returns the rate for every row, non-finite ones included, in row order.
func Turnover(items []models.StockItem) []models.TurnoverEntry {
	out := make([]models.TurnoverEntry, 0, len(items))
	for i, item := range items {
		out = append(out, models.TurnoverEntry{
			Index: i,
			Row:   item.Row,
			Model: item.Model,
			Rate:  item.TurnoverRate(),
		})
	}
	return out
}

// TopTurnover ranks rows with a finite rate, highest first, and keeps at most limit.
// Equal rates keep their original row order. Positions are renumbered from zero.
func TopTurnover(items []models.StockItem, limit int) []models.TurnoverEntry {
	ranked := make([]models.TurnoverEntry, 0, len(items))
	for _, entry := range Turnover(items) {
		if entry.Rate.Finite() {
			ranked = append(ranked, entry)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rate > ranked[j].Rate
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Index = i
	}
	return ranked
}

// OutExceedsIn keeps rows that issued more units than they received.
func OutExceedsIn(items []models.StockItem) []models.StockComparison {
	out := make([]models.StockComparison, 0)
	for _, item := range items {
		if item.Out <= item.In {
			continue
		}
		out = append(out, models.StockComparison{
			Index: len(out),
			Row:   item.Row,
			Model: item.Model,
			In:    item.In,
			Out:   item.Out,
		})
	}
	return out
}

// LowStock keeps rows whose closing balance is strictly below threshold.
func LowStock(items []models.StockItem, threshold float64) []models.LowStockEntry {
	out := make([]models.LowStockEntry, 0)
	for _, item := range items {
		if item.ClosingBalance >= threshold {
			continue
		}
		out = append(out, models.LowStockEntry{
			Index:          len(out),
			Row:            item.Row,
			Model:          item.Model,
			ClosingBalance: item.ClosingBalance,
		})
	}
	return out
}
