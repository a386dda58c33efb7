package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocktrend/internal/config"
	"github.com/mamadbah2/stocktrend/internal/domain/models"
	"github.com/mamadbah2/stocktrend/pkg/clients/notify"
)

const jobTimeout = 2 * time.Minute

// ReportSource is the part of the reporting service the scheduled job needs.
type ReportSource interface {
	FromSheet(ctx context.Context) (models.Report, error)
	Archive(ctx context.Context, report models.Report) error
}

// Scheduler periodically rebuilds the spreadsheet report, archives it and raises alerts.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reports  ReportSource
	notifier notify.Client
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier may be nil.
func NewScheduler(cfg config.ReportingConfig, reports ReportSource, notifier notify.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: cfg.CronSchedule,
		reports:  reports,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Start registers the report job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runJob); err != nil {
		return fmt.Errorf("schedule sheet report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled sheet report failed", zap.Error(err))
	}
}

// RunOnce builds the sheet report, archives it and sends an alert when needed.
// Archive failures are logged and do not stop the alert.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.reports.FromSheet(ctx)
	if err != nil {
		return fmt.Errorf("build sheet report: %w", err)
	}

	if !report.Validation.Valid {
		s.logger.Warn("sheet report skipped, missing required columns",
			zap.Strings("missing", report.Validation.Missing))
		return nil
	}

	if err := s.reports.Archive(ctx, report); err != nil {
		s.logger.Error("failed to archive sheet report", zap.String("report_id", report.ID), zap.Error(err))
	}

	alert, ok := BuildAlert(report)
	if !ok || s.notifier == nil {
		return nil
	}

	if err := s.notifier.SendAlert(ctx, alert); err != nil {
		return fmt.Errorf("send stock alert: %w", err)
	}
	s.logger.Info("stock alert sent",
		zap.String("report_id", report.ID),
		zap.Int("low_stock", len(alert.LowStockModels)),
		zap.Int("out_exceeds_in", len(alert.OutExceedsInModels)))
	return nil
}

// BuildAlert summarizes the flagged rows of a report. ok is false when nothing is flagged.
func BuildAlert(report models.Report) (notify.Alert, bool) {
	m := report.Metrics
	if m == nil || (len(m.LowStock) == 0 && len(m.OutExceedsIn) == 0) {
		return notify.Alert{}, false
	}

	alert := notify.Alert{
		Title:              "Stock alert",
		ReportID:           report.ID,
		Source:             report.Source,
		LowStockModels:     make([]string, 0, len(m.LowStock)),
		OutExceedsInModels: make([]string, 0, len(m.OutExceedsIn)),
	}
	for _, e := range m.LowStock {
		alert.LowStockModels = append(alert.LowStockModels, e.Model)
	}
	for _, e := range m.OutExceedsIn {
		alert.OutExceedsInModels = append(alert.OutExceedsInModels, e.Model)
	}

	var lines []string
	if n := len(alert.LowStockModels); n > 0 {
		lines = append(lines, fmt.Sprintf("Low stock (%d): %s", n, strings.Join(alert.LowStockModels, ", ")))
	}
	if n := len(alert.OutExceedsInModels); n > 0 {
		lines = append(lines, fmt.Sprintf("Stock out exceeds stock in (%d): %s", n, strings.Join(alert.OutExceedsInModels, ", ")))
	}
	alert.Text = fmt.Sprintf("%s for %s\n%s", alert.Title, report.Source, strings.Join(lines, "\n"))
	return alert, true
}
