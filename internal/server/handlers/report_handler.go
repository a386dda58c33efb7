package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
	"github.com/mamadbah2/stocktrend/internal/ingest"
	"github.com/mamadbah2/stocktrend/internal/schema"
	"github.com/mamadbah2/stocktrend/internal/service/metrics"
	"github.com/mamadbah2/stocktrend/internal/service/reporting"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// ReportService describes the reporting operations the HTTP layer can perform.
type ReportService interface {
	Build(ds *ingest.Dataset, source string, opts metrics.Options) models.Report
	MetricsOptions() metrics.Options
	FromSheet(ctx context.Context) (models.Report, error)
	History(ctx context.Context, source string, limit int64) ([]models.ReportSnapshot, error)
	SheetSource() string
}

// ReportHandler exposes inventory reports over HTTP.
type ReportHandler struct {
	svc            ReportService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc ReportService, maxUploadBytes int64, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Schema lists the columns an uploaded file must contain.
func (h *ReportHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"required_columns": schema.RequiredColumns})
}

// Upload builds a report from a multipart CSV or XLSX file sent as "file".
func (h *ReportHandler) Upload(c *gin.Context) {
	opts, err := h.metricsOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		h.logger.Warn("missing upload file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed opening upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	ds, err := ingest.Load(file, fileHeader.Filename)
	if err != nil {
		h.logger.Warn("failed parsing upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv and .xlsx files are supported"})
		case errors.Is(err, ingest.ErrEmptyFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to parse file"})
		}
		return
	}

	h.respond(c, h.svc.Build(ds, fileHeader.Filename, opts))
}

// Sheet builds a report from the configured Google Sheets range.
func (h *ReportHandler) Sheet(c *gin.Context) {
	report, err := h.svc.FromSheet(c.Request.Context())
	if err != nil {
		if errors.Is(err, reporting.ErrSourceNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sheet source not configured"})
			return
		}
		h.logger.Error("failed building sheet report", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to read sheet"})
		return
	}

	h.respond(c, report)
}

// History lists archived report snapshots, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	limit := int64(defaultHistoryLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	source := c.DefaultQuery("source", h.svc.SheetSource())

	snapshots, err := h.svc.History(c.Request.Context(), source, limit)
	if err != nil {
		if errors.Is(err, reporting.ErrArchiveNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive not configured"})
			return
		}
		h.logger.Error("failed loading report history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load history"})
		return
	}

	if snapshots == nil {
		snapshots = []models.ReportSnapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "snapshots": snapshots})
}

func (h *ReportHandler) respond(c *gin.Context, report models.Report) {
	status := http.StatusOK
	if !report.Validation.Valid {
		status = http.StatusUnprocessableEntity
	}

	if c.Query("format") == "text" {
		c.String(status, reporting.Summary(report))
		return
	}
	c.JSON(status, report)
}

func (h *ReportHandler) metricsOptions(c *gin.Context) (metrics.Options, error) {
	opts := h.svc.MetricsOptions()

	if raw := c.Query("low_stock_threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("low_stock_threshold must be a number")
		}
		opts.LowStockThreshold = v
	}

	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return opts, errors.New("top must be a positive integer")
		}
		opts.TopTurnoverLimit = n
	}

	return opts, nil
}
