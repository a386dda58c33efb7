package reporting

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
)

// Summary renders the insights of a report as plain text.
func Summary(report models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Stock report for %s\n", report.Source)

	if !report.Validation.Valid {
		fmt.Fprintf(&b, "Missing required columns: %s\n", strings.Join(report.Validation.Missing, ", "))
		return b.String()
	}
	m := report.Metrics
	if m == nil {
		b.WriteString("No metrics available.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Rows analysed: %d", m.RowCount)
	if m.SkippedRows > 0 {
		fmt.Fprintf(&b, " (%d skipped)", m.SkippedRows)
	}
	b.WriteString("\n")

	if m.AverageDepletion != nil {
		fmt.Fprintf(&b, "Average Stock Depletion Rate: %s units\n", decimal(*m.AverageDepletion))
	} else {
		b.WriteString("Average Stock Depletion Rate: no data\n")
	}
	fmt.Fprintf(&b, "Total Stock In: %s units\n", whole(m.TotalIn))
	fmt.Fprintf(&b, "Total Stock Out: %s units\n", whole(m.TotalOut))

	b.WriteString("\nStock Movement by Category:\n")
	for _, c := range m.CategoryMovement {
		fmt.Fprintf(&b, "  %s: in %s, out %s\n", c.Category, whole(c.In), whole(c.Out))
	}

	b.WriteString("\nStock Distribution by Category:\n")
	var stock float64
	for _, c := range m.CategoryDistribution {
		stock += c.ClosingBalance
	}
	for _, c := range m.CategoryDistribution {
		fmt.Fprintf(&b, "  %s: %s units", c.Category, whole(c.ClosingBalance))
		if stock > 0 {
			fmt.Fprintf(&b, " (%s%%)", decimal(c.ClosingBalance/stock*100))
		}
		b.WriteString("\n")
	}

	if len(m.OutExceedsIn) > 0 {
		b.WriteString("\nModels Where Stock Out Exceeds Stock In:\n")
		for _, e := range m.OutExceedsIn {
			fmt.Fprintf(&b, "  %s: in %s, out %s\n", e.Model, whole(e.In), whole(e.Out))
		}
	}

	if len(m.LowStock) > 0 {
		fmt.Fprintf(&b, "\nLow Stock Models (below %s units):\n", humanize.Ftoa(m.LowStockThreshold))
		for _, e := range m.LowStock {
			fmt.Fprintf(&b, "  %s: %s\n", e.Model, whole(e.ClosingBalance))
		}
	}

	fmt.Fprintf(&b, "\nTop %d Models by Stock Turnover Rate:\n", len(m.TopTurnover))
	for _, e := range m.TopTurnover {
		fmt.Fprintf(&b, "  %d. %s: %s\n", e.Index+1, e.Model, decimal(float64(e.Rate)))
	}

	return b.String()
}

func decimal(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func whole(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}
