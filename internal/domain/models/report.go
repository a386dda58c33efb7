package models

import "time"

// ValidationResult is the outcome of checking a dataset against the required columns.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
}

// DepletionEntry carries the per-row stock depletion.
type DepletionEntry struct {
	Row       int     `json:"row"`
	Model     string  `json:"model"`
	Depletion float64 `json:"depletion"`
}

// TurnoverEntry carries the per-row turnover rate. Index is the position within the
// table it belongs to; Row points back at the dataset.
type TurnoverEntry struct {
	Index int          `json:"index"`
	Row   int          `json:"row"`
	Model string       `json:"model"`
	Rate  TurnoverRate `json:"turnover_rate"`
}

// ModelMovement is the full stock movement of one row, in dataset order.
type ModelMovement struct {
	Index          int     `json:"index"`
	Row            int     `json:"row"`
	Model          string  `json:"model"`
	OpeningBalance float64 `json:"opening_balance"`
	In             float64 `json:"in"`
	Out            float64 `json:"out"`
	ClosingBalance float64 `json:"closing_balance"`
}

// CategoryMovement aggregates units received and issued for a category.
type CategoryMovement struct {
	Category string  `json:"category"`
	In       float64 `json:"in"`
	Out      float64 `json:"out"`
}

// CategoryStock aggregates current stock for a category.
type CategoryStock struct {
	Category       string  `json:"category"`
	ClosingBalance float64 `json:"closing_balance"`
}

// StockComparison lists a model whose issued units exceed received units.
type StockComparison struct {
	Index int     `json:"index"`
	Row   int     `json:"row"`
	Model string  `json:"model"`
	In    float64 `json:"in"`
	Out   float64 `json:"out"`
}

// LowStockEntry lists a model whose closing balance sits below the threshold.
type LowStockEntry struct {
	Index          int     `json:"index"`
	Row            int     `json:"row"`
	Model          string  `json:"model"`
	ClosingBalance float64 `json:"closing_balance"`
}

// Metrics bundles every derived figure computed for a valid dataset.
type Metrics struct {
	RowCount             int                `json:"row_count"`
	SkippedRows          int                `json:"skipped_rows"`
	LowStockThreshold    float64            `json:"low_stock_threshold"`
	AverageDepletion     *float64           `json:"average_depletion"`
	TotalIn              float64            `json:"total_in"`
	TotalOut             float64            `json:"total_out"`
	Depletion            []DepletionEntry   `json:"depletion"`
	ModelMovement        []ModelMovement    `json:"model_movement"`
	CategoryMovement     []CategoryMovement `json:"category_movement"`
	CategoryDistribution []CategoryStock    `json:"category_distribution"`
	Turnover             []TurnoverEntry    `json:"turnover"`
	TopTurnover          []TurnoverEntry    `json:"top_turnover"`
	OutExceedsIn         []StockComparison  `json:"out_exceeds_in"`
	LowStock             []LowStockEntry    `json:"low_stock"`
}

// Report is the full result of one processing pass over a dataset. Metrics is nil
// when validation failed.
type Report struct {
	ID          string              `json:"id"`
	Source      string              `json:"source"`
	GeneratedAt time.Time           `json:"generated_at"`
	Validation  ValidationResult    `json:"validation"`
	Columns     []string            `json:"columns"`
	Preview     []map[string]string `json:"preview,omitempty"`
	Metrics     *Metrics            `json:"metrics,omitempty"`
}

// ReportSnapshot is the aggregate-only view of a report kept in the archive.
type ReportSnapshot struct {
	ReportID           string    `bson:"report_id" json:"report_id"`
	Source             string    `bson:"source" json:"source"`
	GeneratedAt        time.Time `bson:"generated_at" json:"generated_at"`
	RowCount           int       `bson:"row_count" json:"row_count"`
	TotalIn            float64   `bson:"total_in" json:"total_in"`
	TotalOut           float64   `bson:"total_out" json:"total_out"`
	AverageDepletion   *float64  `bson:"average_depletion" json:"average_depletion"`
	LowStockModels     []string  `bson:"low_stock_models" json:"low_stock_models"`
	OutExceedsInModels []string  `bson:"out_exceeds_in_models" json:"out_exceeds_in_models"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// NewReportSnapshot reduces a valid report to its archived form.
func NewReportSnapshot(report Report, createdAt time.Time) ReportSnapshot {
	snapshot := ReportSnapshot{
		ReportID:    report.ID,
		Source:      report.Source,
		GeneratedAt: report.GeneratedAt,
		CreatedAt:   createdAt,
	}
	if report.Metrics == nil {
		return snapshot
	}

	m := report.Metrics
	snapshot.RowCount = m.RowCount
	snapshot.TotalIn = m.TotalIn
	snapshot.TotalOut = m.TotalOut
	snapshot.AverageDepletion = m.AverageDepletion
	snapshot.LowStockModels = make([]string, 0, len(m.LowStock))
	for _, entry := range m.LowStock {
		snapshot.LowStockModels = append(snapshot.LowStockModels, entry.Model)
	}
	snapshot.OutExceedsInModels = make([]string, 0, len(m.OutExceedsIn))
	for _, entry := range m.OutExceedsIn {
		snapshot.OutExceedsInModels = append(snapshot.OutExceedsInModels, entry.Model)
	}
	return snapshot
}
