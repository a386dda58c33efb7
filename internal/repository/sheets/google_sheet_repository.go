// Package sheets reads inventory ranges from, and appends report history to, a
// Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stocktrend/internal/config"
)

const (
	// Numbers come back as numbers, so thousands separators never reach the parser.
	readRenderOption = "UNFORMATTED_VALUE"
	// Timestamps in history rows are parsed by Sheets into dates.
	appendInputOption = "USER_ENTERED"
	appendInsertRows  = "INSERT_ROWS"
)

// ErrEmptyRange is returned when an operation is called without an A1 range.
var ErrEmptyRange = errors.New("sheet range must not be empty")

// Repository is the spreadsheet access the reporting service relies on.
type Repository interface {
	ReadValues(ctx context.Context, a1Range string) ([][]interface{}, error)
	AppendValues(ctx context.Context, a1Range string, row []interface{}) error
}

// GoogleSheetRepository talks to one spreadsheet through the Sheets v4 values API.
type GoogleSheetRepository struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

var _ Repository = (*GoogleSheetRepository)(nil)

// NewGoogleSheetRepository authenticates with the service account file from cfg.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	return newRepository(ctx, cfg.SpreadsheetID, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
}

func newRepository(ctx context.Context, spreadsheetID string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values:        sheetsapi.NewSpreadsheetsValuesService(svc),
		spreadsheetID: spreadsheetID,
		logger:        logger.With(zap.String("spreadsheet_id", spreadsheetID)),
	}, nil
}

// ReadValues returns the rows of a1Range as raw cell values, header row included.
func (r *GoogleSheetRepository) ReadValues(ctx context.Context, a1Range string) ([][]interface{}, error) {
	if a1Range == "" {
		return nil, ErrEmptyRange
	}

	resp, err := r.values.Get(r.spreadsheetID, a1Range).
		ValueRenderOption(readRenderOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", a1Range, err)
	}

	r.logger.Debug("inventory range read", zap.String("range", a1Range), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// AppendValues adds row below the last filled row of a1Range.
func (r *GoogleSheetRepository) AppendValues(ctx context.Context, a1Range string, row []interface{}) error {
	if a1Range == "" {
		return ErrEmptyRange
	}

	body := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	resp, err := r.values.Append(r.spreadsheetID, a1Range, body).
		ValueInputOption(appendInputOption).
		InsertDataOption(appendInsertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to range %s: %w", a1Range, err)
	}

	fields := []zap.Field{zap.String("range", a1Range)}
	if resp.Updates != nil {
		fields = append(fields, zap.String("updated_range", resp.Updates.UpdatedRange))
	}
	r.logger.Debug("history row appended", fields...)
	return nil
}
