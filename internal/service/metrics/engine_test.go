package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
)

func item(row int, category, model string, in, out, opening, closing float64) models.StockItem {
	return models.StockItem{
		Row:            row,
		Category:       category,
		Model:          model,
		In:             in,
		Out:            out,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}
}

func twoLaptops() []models.StockItem {
	return []models.StockItem{
		item(0, "A", "X1", 10, 2, 20, 28),
		item(1, "A", "X2", 0, 8, 10, 2),
	}
}

func lowStockModels(entries []models.LowStockEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Model)
	}
	return out
}

func TestComputeTwoRowScenario(t *testing.T) {
	m := NewEngine(DefaultOptions()).Compute(twoLaptops())

	assert.Equal(t, 2, m.RowCount)
	assert.Equal(t, 10.0, m.TotalIn)
	assert.Equal(t, 10.0, m.TotalOut)
	require.NotNil(t, m.AverageDepletion)
	assert.Equal(t, 0.0, *m.AverageDepletion)
	assert.Equal(t, []string{"X2"}, lowStockModels(m.LowStock))
	require.Len(t, m.OutExceedsIn, 1)
	assert.Equal(t, "X2", m.OutExceedsIn[0].Model)
	assert.Equal(t, 0, m.OutExceedsIn[0].Index)
	assert.Equal(t, 1, m.OutExceedsIn[0].Row)
	assert.Equal(t, 5.0, m.LowStockThreshold)
}

func TestDepletionPerRow(t *testing.T) {
	items := twoLaptops()

	entries := Depletion(items)

	require.Len(t, entries, len(items))
	for i, e := range entries {
		assert.Equal(t, items[i].OpeningBalance-items[i].ClosingBalance, e.Depletion)
	}
	assert.Equal(t, -8.0, entries[0].Depletion)
	assert.Equal(t, 8.0, entries[1].Depletion)
}

func TestEmptyDataset(t *testing.T) {
	avg, ok := AverageDepletion(nil)
	assert.False(t, ok)
	assert.Zero(t, avg)

	m := NewEngine(DefaultOptions()).Compute(nil)
	assert.Nil(t, m.AverageDepletion)
	assert.Zero(t, m.TotalIn)
	assert.Zero(t, m.TotalOut)
	assert.NotNil(t, m.CategoryMovement)
	assert.Empty(t, m.TopTurnover)
	assert.NotNil(t, m.OutExceedsIn)
	assert.NotNil(t, m.LowStock)
}

func TestMovementByModel(t *testing.T) {
	items := []models.StockItem{
		item(3, "A", "X1", 10, 2, 20, 28),
		item(5, "B", "X1", 0, 8, 10, 2),
		item(6, "A", "Z", 0, 5, 0, 0),
	}

	movement := MovementByModel(items)

	assert.Equal(t, []models.ModelMovement{
		{Index: 0, Row: 3, Model: "X1", OpeningBalance: 20, In: 10, Out: 2, ClosingBalance: 28},
		{Index: 1, Row: 5, Model: "X1", OpeningBalance: 10, In: 0, Out: 8, ClosingBalance: 2},
		{Index: 2, Row: 6, Model: "Z", OpeningBalance: 0, In: 0, Out: 5, ClosingBalance: 0},
	}, movement)

	m := NewEngine(DefaultOptions()).Compute(items)
	assert.Equal(t, movement, m.ModelMovement)
	assert.NotNil(t, NewEngine(DefaultOptions()).Compute(nil).ModelMovement)
}

func TestMovementByCategoryKeepsFirstSeenOrder(t *testing.T) {
	items := []models.StockItem{
		item(0, "Laptop", "L1", 5, 1, 10, 14),
		item(1, "Desktop", "D1", 2, 3, 10, 9),
		item(2, "Laptop", "L2", 7, 4, 10, 13),
		item(3, "Accessory", "A1", 1, 1, 1, 1),
	}

	movement := MovementByCategory(items)

	require.Len(t, movement, 3)
	assert.Equal(t, models.CategoryMovement{Category: "Laptop", In: 12, Out: 5}, movement[0])
	assert.Equal(t, models.CategoryMovement{Category: "Desktop", In: 2, Out: 3}, movement[1])
	assert.Equal(t, models.CategoryMovement{Category: "Accessory", In: 1, Out: 1}, movement[2])

	var in, out float64
	for _, m := range movement {
		in += m.In
		out += m.Out
	}
	assert.Equal(t, TotalIn(items), in)
	assert.Equal(t, TotalOut(items), out)
}

func TestDistributionByCategory(t *testing.T) {
	items := []models.StockItem{
		item(0, "B", "b1", 0, 0, 0, 4),
		item(1, "A", "a1", 0, 0, 0, 6),
		item(2, "B", "b2", 0, 0, 0, 1),
	}

	dist := DistributionByCategory(items)

	assert.Equal(t, []models.CategoryStock{
		{Category: "B", ClosingBalance: 5},
		{Category: "A", ClosingBalance: 6},
	}, dist)
}

func TestTurnoverKeepsNonFiniteRows(t *testing.T) {
	items := []models.StockItem{
		item(0, "A", "zero-open", 0, 5, 0, 0),
		item(1, "A", "idle", 0, 0, 0, 0),
		item(2, "A", "normal", 0, 4, 8, 4),
	}

	rates := Turnover(items)

	require.Len(t, rates, 3)
	assert.True(t, math.IsInf(float64(rates[0].Rate), 1))
	assert.True(t, math.IsNaN(float64(rates[1].Rate)))
	assert.False(t, rates[0].Rate.Finite())
	assert.False(t, rates[1].Rate.Finite())
	assert.Equal(t, models.TurnoverRate(0.5), rates[2].Rate)
}

func TestTopTurnoverRanking(t *testing.T) {
	items := []models.StockItem{
		item(0, "A", "m0", 0, 1, 10, 0), // 0.1
		item(1, "A", "m1", 0, 5, 0, 0),  // +Inf
		item(2, "A", "m2", 0, 9, 10, 0), // 0.9
		item(3, "A", "m3", 0, 5, 10, 0), // 0.5
		item(4, "A", "m4", 0, 3, 10, 0), // 0.3
		item(5, "A", "m5", 0, 5, 10, 0), // 0.5, tie with m3
		item(6, "A", "m6", 0, 7, 10, 0), // 0.7
		item(7, "A", "m7", 0, 2, 10, 0), // 0.2
		item(8, "A", "m8", 0, 0, 0, 0),  // NaN
	}

	top := TopTurnover(items, DefaultTopTurnoverLimit)

	require.Len(t, top, 5)
	names := make([]string, 0, len(top))
	for i, e := range top {
		names = append(names, e.Model)
		assert.Equal(t, i, e.Index)
		assert.True(t, e.Rate.Finite())
		if i > 0 {
			assert.GreaterOrEqual(t, float64(top[i-1].Rate), float64(e.Rate))
		}
	}
	assert.Equal(t, []string{"m2", "m6", "m3", "m5", "m4"}, names)
}

func TestTopTurnoverFewerRowsThanLimit(t *testing.T) {
	top := TopTurnover(twoLaptops(), 5)

	require.Len(t, top, 2)
	assert.Equal(t, "X2", top[0].Model)
	assert.Equal(t, 1, top[0].Row)
	assert.Equal(t, 0, top[0].Index)
}

func TestZeroOpeningBalanceStillFlagged(t *testing.T) {
	items := []models.StockItem{item(0, "A", "Z", 0, 5, 0, 0)}

	m := NewEngine(DefaultOptions()).Compute(items)

	assert.Empty(t, m.TopTurnover)
	require.Len(t, m.Turnover, 1)
	require.Len(t, m.OutExceedsIn, 1)
	require.Len(t, m.LowStock, 1)
	assert.Equal(t, "Z", m.OutExceedsIn[0].Model)
	assert.Equal(t, "Z", m.LowStock[0].Model)
}

func TestLowStockUsesConfiguredThreshold(t *testing.T) {
	items := []models.StockItem{
		item(0, "A", "a", 0, 0, 0, 4),
		item(1, "A", "b", 0, 0, 0, 5),
		item(2, "A", "c", 0, 0, 0, 9),
	}

	assert.Equal(t, []string{"a"}, lowStockModels(LowStock(items, 5)))
	assert.Equal(t, []string{"a", "b"}, lowStockModels(LowStock(items, 6)))
	assert.Empty(t, LowStock(items, 0))

	m := NewEngine(Options{LowStockThreshold: 10}).Compute(items)
	assert.Len(t, m.LowStock, 3)
	assert.Equal(t, DefaultTopTurnoverLimit, NewEngine(Options{}).Options().TopTurnoverLimit)
}

func TestOutExceedsInEmptyResult(t *testing.T) {
	items := []models.StockItem{item(0, "A", "a", 5, 5, 0, 0)}

	result := OutExceedsIn(items)

	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	items := twoLaptops()
	before := append([]models.StockItem(nil), items...)

	NewEngine(DefaultOptions()).Compute(items)

	assert.Equal(t, before, items)
}

func TestMetricsEncodeNonFiniteRatesAsNull(t *testing.T) {
	items := []models.StockItem{item(0, "A", "Z", 0, 5, 0, 0)}

	raw, err := json.Marshal(NewEngine(DefaultOptions()).Compute(items))

	require.NoError(t, err)
	assert.Contains(t, string(raw), `"turnover_rate":null`)
}
