package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
	"github.com/mamadbah2/stocktrend/internal/schema"
)

// ErrSchemaMismatch is returned by Items when required columns are absent.
var ErrSchemaMismatch = errors.New("dataset does not match the inventory schema")

// Dataset is one parsed inventory file. Column names are already trimmed and every
// cell is held as text until Items extracts the typed rows.
type Dataset struct {
	columns []string
	rows    int
	frame   dataframe.DataFrame
}

// SkippedRow describes a data row left out of Items because a numeric cell did not parse.
type SkippedRow struct {
	Row    int
	Column string
	Value  string
}

// Columns returns the normalized header.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return d.rows
}

// Validate checks the dataset header against the inventory layout.
func (d *Dataset) Validate() models.ValidationResult {
	return schema.Validate(d.columns, schema.RequiredColumns)
}

// Preview returns up to n leading rows keyed by column name.
func (d *Dataset) Preview(n int) []map[string]string {
	if n > d.rows {
		n = d.rows
	}
	if n <= 0 {
		return nil
	}

	preview := make([]map[string]string, n)
	for i := range preview {
		preview[i] = make(map[string]string, len(d.columns))
	}
	for _, name := range d.columns {
		col, err := d.column(name)
		if err != nil {
			continue
		}
		values := col.Records()
		for i := 0; i < n; i++ {
			preview[i][name] = values[i]
		}
	}
	return preview
}

// Items extracts the typed inventory rows. Rows carrying a numeric cell that does not
// parse to a finite number are left out and reported as skipped.
func (d *Dataset) Items() ([]models.StockItem, []SkippedRow, error) {
	if result := d.Validate(); !result.Valid {
		return nil, nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(result.Missing, ", "))
	}

	items := make([]models.StockItem, 0, d.rows)
	if d.rows == 0 {
		return items, nil, nil
	}

	categoryCol, err := d.column(models.ColumnCategory)
	if err != nil {
		return nil, nil, err
	}
	modelCol, err := d.column(models.ColumnModel)
	if err != nil {
		return nil, nil, err
	}
	categories := categoryCol.Records()
	names := modelCol.Records()

	numericColumns := []string{
		models.ColumnIn,
		models.ColumnOut,
		models.ColumnClosingBalance,
		models.ColumnOpeningBalance,
	}
	numbers := make([][]float64, len(numericColumns))
	raw := make([][]string, len(numericColumns))
	for i, name := range numericColumns {
		col, err := d.column(name)
		if err != nil {
			return nil, nil, err
		}
		numbers[i] = col.Float()
		raw[i] = col.Records()
	}

	var skipped []SkippedRow
	for row := 0; row < d.rows; row++ {
		bad := -1
		for col := range numericColumns {
			v := numbers[col][row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				bad = col
				break
			}
		}
		if bad >= 0 {
			skipped = append(skipped, SkippedRow{
				Row:    row,
				Column: numericColumns[bad],
				Value:  raw[bad][row],
			})
			continue
		}

		items = append(items, models.StockItem{
			Row:            row,
			Category:       categories[row],
			Model:          names[row],
			In:             numbers[0][row],
			Out:            numbers[1][row],
			ClosingBalance: numbers[2][row],
			OpeningBalance: numbers[3][row],
		})
	}
	return items, skipped, nil
}

func (d *Dataset) column(name string) (series.Series, error) {
	col := d.frame.Col(name)
	if col.Err != nil {
		return col, fmt.Errorf("column %q: %w", name, col.Err)
	}
	return col, nil
}
