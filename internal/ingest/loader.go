// Package ingest turns uploaded CSV and Excel files, or Google Sheets ranges, into
// an in-memory inventory Dataset.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stocktrend/internal/schema"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when no header row can be found.
	ErrEmptyFile = errors.New("file has no header row")
)

const utf8BOM = "\ufeff"

// Load parses r according to the extension of filename.
func Load(r io.Reader, filename string) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return FromCSV(r)
	case ".xlsx":
		return FromXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromCSV reads a comma separated file whose first row is the header.
func FromCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return fromRecords(records)
}

// FromXLSX reads the first worksheet of a workbook using raw cell values.
func FromXLSX(r io.Reader) (*Dataset, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

// FromValues converts a Google Sheets value range into a Dataset.
func FromValues(values [][]interface{}) (*Dataset, error) {
	records := make([][]string, len(values))
	for i, row := range values {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = cellText(cell)
		}
		records[i] = record
	}
	return fromRecords(records)
}

func fromRecords(records [][]string) (*Dataset, error) {
	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrEmptyFile
	}

	header := uniqueColumns(schema.NormalizeColumns(records[start]))
	width := len(header)

	body := make([][]string, 0, len(records)-start-1)
	for _, raw := range records[start+1:] {
		row := make([]string, width)
		for i := 0; i < width && i < len(raw); i++ {
			row[i] = strings.TrimSpace(raw[i])
		}
		if isBlank(row) {
			continue
		}
		body = append(body, row)
	}

	ds := &Dataset{columns: header, rows: len(body)}
	if len(body) == 0 {
		return ds, nil
	}

	frame := dataframe.LoadRecords(
		append([][]string{header}, body...),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if frame.Err != nil {
		return nil, fmt.Errorf("load records: %w", frame.Err)
	}
	ds.frame = frame
	return ds, nil
}

// uniqueColumns names blank headers after their position and suffixes repeated ones,
// so every column stays addressable. A suffix never reuses a name already in the header.
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]struct{}, len(header))
	next := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		if _, dup := taken[candidate]; dup {
			n := max(next[name], 1)
			for {
				candidate = name + "." + strconv.Itoa(n)
				n++
				if _, dup := taken[candidate]; !dup {
					break
				}
			}
			next[name] = n
		}
		taken[candidate] = struct{}{}
		out[i] = candidate
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellText(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
