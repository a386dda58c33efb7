package models

import (
	"encoding/json"
	"math"
)

// Inventory column names every uploaded dataset must expose.
const (
	ColumnCategory       = "Category"
	ColumnModel          = "Model"
	ColumnIn             = "In"
	ColumnOut            = "Out"
	ColumnClosingBalance = "Closing Balance"
	ColumnOpeningBalance = "Opening Balance"
)

// StockItem is a single typed inventory row extracted from a validated dataset.
type StockItem struct {
	Row            int     `json:"row"`
	Category       string  `json:"category"`
	Model          string  `json:"model"`
	In             float64 `json:"in"`
	Out            float64 `json:"out"`
	ClosingBalance float64 `json:"closing_balance"`
	OpeningBalance float64 `json:"opening_balance"`
}

// Depletion is the net decrease in stock over the period.
func (s StockItem) Depletion() float64 {
	return s.OpeningBalance - s.ClosingBalance
}

// TurnoverRate divides units issued by opening stock. A zero opening balance
// yields a non-finite rate rather than a failure.
func (s StockItem) TurnoverRate() TurnoverRate {
	return TurnoverRate(s.Out / s.OpeningBalance)
}

// TurnoverRate is a velocity-of-sale ratio that may be non-finite.
type TurnoverRate float64

// Finite reports whether the rate can take part in rankings.
func (r TurnoverRate) Finite() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON encodes non-finite rates as null.
func (r TurnoverRate) MarshalJSON() ([]byte, error) {
	if !r.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}
