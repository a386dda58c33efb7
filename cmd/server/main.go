package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stocktrend/internal/config"
	"github.com/mamadbah2/stocktrend/internal/repository/mongodb"
	"github.com/mamadbah2/stocktrend/internal/repository/sheets"
	"github.com/mamadbah2/stocktrend/internal/scheduler"
	"github.com/mamadbah2/stocktrend/internal/server/handlers"
	"github.com/mamadbah2/stocktrend/internal/server/router"
	"github.com/mamadbah2/stocktrend/internal/service/metrics"
	reportingsvc "github.com/mamadbah2/stocktrend/internal/service/reporting"
	"github.com/mamadbah2/stocktrend/pkg/clients/notify"
	"github.com/mamadbah2/stocktrend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, sheet reports and scheduler disabled")
	}

	var archive mongodb.Repository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, report archive disabled")
	}

	reportingSvc := reportingsvc.NewService(sheetsRepo, archive, reportingsvc.Options{
		Metrics: metrics.Options{
			LowStockThreshold: cfg.Reporting.LowStockThreshold,
			TopTurnoverLimit:  cfg.Reporting.TopTurnoverLimit,
		},
		PreviewRows:    cfg.Reporting.PreviewRows,
		InventoryRange: cfg.Sheets.InventoryRange,
		HistoryRange:   cfg.Sheets.HistoryRange,
	}, logger.Named(baseLogger, "svc.reporting"))

	var notifier notify.Client
	if cfg.Alerts.WebhookURL != "" {
		notifier = notify.NewClient(cfg.Alerts)
		baseLogger.Info("stock alert webhook enabled")
	}

	if sheetsRepo != nil {
		sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, notifier, logger.Named(baseLogger, "scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	reportHandler := handlers.NewReportHandler(reportingSvc, cfg.Server.MaxUploadMB<<20, logger.Named(baseLogger, "handlers.report"))
	engine := router.New(reportHandler, logger.Named(baseLogger, "router"))
	engine.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
