package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
	"github.com/mamadbah2/stocktrend/internal/ingest"
	"github.com/mamadbah2/stocktrend/internal/repository/mongodb"
	repo "github.com/mamadbah2/stocktrend/internal/repository/sheets"
	"github.com/mamadbah2/stocktrend/internal/service/metrics"
)

const historyTimeLayout = time.RFC3339

var (
	// ErrSourceNotConfigured indicates no spreadsheet source was wired.
	ErrSourceNotConfigured = errors.New("report source not configured")
	// ErrArchiveNotConfigured indicates no snapshot archive was wired.
	ErrArchiveNotConfigured = errors.New("report archive not configured")
)

// Options controls how reports are produced and where they are read from.
type Options struct {
	Metrics        metrics.Options
	PreviewRows    int
	InventoryRange string
	HistoryRange   string
}

// Service turns datasets into reports: validate, then compute.
type Service struct {
	sheets  repo.Repository
	archive mongodb.Repository
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewService wires a new reporting service instance. sheets and archive are optional.
func NewService(sheets repo.Repository, archive mongodb.Repository, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sheets:  sheets,
		archive: archive,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// MetricsOptions returns the configured metric thresholds.
func (s *Service) MetricsOptions() metrics.Options {
	return s.opts.Metrics
}

// SheetSource names reports built from the configured spreadsheet range.
func (s *Service) SheetSource() string {
	return "sheet:" + s.opts.InventoryRange
}

// Build validates ds and, when it passes, computes every metric. An invalid dataset
// yields a report without metrics.
func (s *Service) Build(ds *ingest.Dataset, source string, opts metrics.Options) models.Report {
	report := models.Report{
		ID:          s.newID(),
		Source:      source,
		GeneratedAt: s.now().UTC(),
		Columns:     ds.Columns(),
		Preview:     ds.Preview(s.opts.PreviewRows),
		Validation:  ds.Validate(),
	}

	if !report.Validation.Valid {
		s.logger.Warn("dataset missing required columns",
			zap.String("source", source),
			zap.Strings("missing", report.Validation.Missing))
		return report
	}

	items, skipped, err := ds.Items()
	if err != nil {
		s.logger.Error("failed extracting inventory rows", zap.String("source", source), zap.Error(err))
		return report
	}

	for _, row := range skipped {
		s.logger.Debug("skip inventory row with invalid number",
			zap.Int("row", row.Row),
			zap.String("column", row.Column),
			zap.String("value", row.Value))
	}

	computed := metrics.NewEngine(opts).Compute(items)
	computed.SkippedRows = len(skipped)
	report.Metrics = &computed

	s.logger.Info("report built",
		zap.String("report_id", report.ID),
		zap.String("source", source),
		zap.Int("rows", computed.RowCount),
		zap.Int("skipped_rows", computed.SkippedRows))

	return report
}

// FromSheet reads the configured inventory range and builds a report from it.
func (s *Service) FromSheet(ctx context.Context) (models.Report, error) {
	if s.sheets == nil {
		return models.Report{}, ErrSourceNotConfigured
	}

	values, err := s.sheets.ReadValues(ctx, s.opts.InventoryRange)
	if err != nil {
		return models.Report{}, fmt.Errorf("load inventory range: %w", err)
	}

	ds, err := ingest.FromValues(values)
	if err != nil {
		return models.Report{}, fmt.Errorf("parse inventory range: %w", err)
	}

	return s.Build(ds, s.SheetSource(), s.opts.Metrics), nil
}

// Archive stores the aggregate view of a valid report in the snapshot archive and
// appends a summary row to the history sheet, for whichever of the two is wired.
func (s *Service) Archive(ctx context.Context, report models.Report) error {
	if report.Metrics == nil {
		s.logger.Debug("skip archiving report without metrics", zap.String("report_id", report.ID))
		return nil
	}

	var errs []error

	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, models.NewReportSnapshot(report, s.now().UTC())); err != nil {
			errs = append(errs, fmt.Errorf("save snapshot: %w", err))
		}
	}

	if s.sheets != nil && s.opts.HistoryRange != "" {
		if err := s.sheets.AppendValues(ctx, s.opts.HistoryRange, historyRow(report)); err != nil {
			errs = append(errs, fmt.Errorf("append history row: %w", err))
		}
	}

	return errors.Join(errs...)
}

// History lists the latest archived snapshots for source.
func (s *Service) History(ctx context.Context, source string, limit int64) ([]models.ReportSnapshot, error) {
	if s.archive == nil {
		return nil, ErrArchiveNotConfigured
	}
	snapshots, err := s.archive.LatestSnapshots(ctx, source, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return snapshots, nil
}

func historyRow(report models.Report) []interface{} {
	m := report.Metrics
	var avg interface{} = ""
	if m.AverageDepletion != nil {
		avg = *m.AverageDepletion
	}
	return []interface{}{
		report.GeneratedAt.Format(historyTimeLayout),
		report.Source,
		m.RowCount,
		m.TotalIn,
		m.TotalOut,
		avg,
		len(m.LowStock),
		len(m.OutExceedsIn),
	}
}
