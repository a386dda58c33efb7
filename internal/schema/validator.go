// Package schema checks that an inventory dataset exposes the columns the
// metrics engine depends on.
package schema

import (
	"strings"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
)

// RequiredColumns is the fixed inventory layout, in reporting order.
var RequiredColumns = []string{
	models.ColumnCategory,
	models.ColumnModel,
	models.ColumnIn,
	models.ColumnOut,
	models.ColumnClosingBalance,
	models.ColumnOpeningBalance,
}

// NormalizeColumns returns a copy of columns with surrounding whitespace removed.
func NormalizeColumns(columns []string) []string {
	normalized := make([]string, len(columns))
	for i, name := range columns {
		normalized[i] = strings.TrimSpace(name)
	}
	return normalized
}

// Validate computes required minus columns. Missing names keep the order of required.
func Validate(columns, required []string) models.ValidationResult {
	present := make(map[string]struct{}, len(columns))
	for _, name := range NormalizeColumns(columns) {
		present[name] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{}, len(required))
	for _, name := range required {
		if _, ok := present[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}

	if len(missing) == 0 {
		return models.ValidationResult{Valid: true}
	}
	return models.ValidationResult{Valid: false, Missing: missing}
}
