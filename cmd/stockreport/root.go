package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/stocktrend/internal/ingest"
	"github.com/mamadbah2/stocktrend/internal/service/metrics"
	"github.com/mamadbah2/stocktrend/internal/service/reporting"
	"github.com/mamadbah2/stocktrend/pkg/logger"
)

// errInvalidSchema makes the process exit non-zero after the report was printed.
var errInvalidSchema = errors.New("dataset is missing required columns")

type reportFlags struct {
	threshold   float64
	top         int
	previewRows int
	asJSON      bool
	logLevel    string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockreport",
		Short:         "Warehouse stock trend reports from CSV or Excel inventory files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReportCmd())
	return root
}

func newReportCmd() *cobra.Command {
	flags := reportFlags{}

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Validate an inventory file and print its stock insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.threshold, "threshold", metrics.DefaultLowStockThreshold, "closing balance below which a model is low on stock")
	cmd.Flags().IntVar(&flags.top, "top", metrics.DefaultTopTurnoverLimit, "number of models in the turnover ranking")
	cmd.Flags().IntVar(&flags.previewRows, "preview", 5, "rows included in the JSON preview")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "warn", "log level written to stderr")
	return cmd
}

func runReport(out io.Writer, path string, flags reportFlags) error {
	log, err := logger.NewConsole(flags.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	ds, err := ingest.Load(file, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	opts := metrics.Options{LowStockThreshold: flags.threshold, TopTurnoverLimit: flags.top}
	svc := reporting.NewService(nil, nil, reporting.Options{
		Metrics:     opts,
		PreviewRows: flags.previewRows,
	}, log.Named("svc.reporting"))

	report := svc.Build(ds, filepath.Base(path), opts)

	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		fmt.Fprint(out, reporting.Summary(report))
	}

	if !report.Validation.Valid {
		return fmt.Errorf("%w: %s", errInvalidSchema, strings.Join(report.Validation.Missing, ", "))
	}
	return nil
}
