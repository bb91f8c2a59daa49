// Package app wires the conversion, extraction and reporting stages into one
// batch run.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/leadextract/internal/config"
	"github.com/fieldops/leadextract/internal/convert"
	"github.com/fieldops/leadextract/internal/extract"
	"github.com/fieldops/leadextract/internal/pipeline"
	"github.com/fieldops/leadextract/internal/report"
)

// ErrNoInputs is returned when the input directory yields no usable images.
var ErrNoInputs = errors.New("no images were converted")

// Output filenames inside the configured output directory.
const (
	JSONFileName      = "extracted_contacts.json"
	CSVFileName       = "extracted_contacts.csv"
	SummaryFileName   = "extracted_contacts_summary.csv"
	RetryListFileName = "failed_images_retry_list.txt"
)

// Result describes what one batch run did.
type Result struct {
	Converted          int
	ConversionFailures int
	Summary            pipeline.Summary
}

// Run drives a full batch: convert HEIC photos, extract contacts under the
// configured concurrency cap, and write every report. Per-image failures are
// folded into the result; the returned error is reserved for problems that
// stop the run itself.
func Run(ctx context.Context, cfg config.Config, extractor extract.Extractor, runner convert.Runner, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	converter := convert.New(cfg.InputDir, cfg.ConvertedDir, convert.Options{
		Tool:     cfg.ConvertTool,
		Quality:  cfg.JPEGQuality,
		MaxWidth: cfg.MaxImageWidth,
	}, runner, logger)

	converted, conversionFailures, err := converter.ConvertAll(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Converted:          len(converted),
		ConversionFailures: len(conversionFailures),
	}
	if len(converted) == 0 {
		return res, ErrNoInputs
	}

	jobs := make([]pipeline.Job, 0, len(converted))
	for _, c := range converted {
		jobs = append(jobs, pipeline.Job{SourceID: c.SourceName, ImagePath: c.Path})
	}

	logger.Info("starting batch extraction",
		zap.Int("jobs", len(jobs)),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.String("model", cfg.Model),
	)

	outcomes, err := pipeline.ExtractAll(ctx, jobs, extractor, logger, pipeline.Options{
		MaxConcurrent:  cfg.MaxConcurrent,
		MaxAttempts:    cfg.MaxAttempts,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		BackoffBase:    cfg.BackoffBase,
		BackoffMin:     cfg.BackoffMin,
		BackoffMax:     cfg.BackoffMax,
	})
	if err != nil {
		return res, err
	}

	res.Summary = pipeline.Summarize(outcomes)
	logger.Info("batch extraction complete",
		zap.Int("successful", res.Summary.Successful),
		zap.Int("failed", res.Summary.Failed),
	)

	info := report.NewRunInfo(cfg.Model, time.Now())
	if err := writeReports(cfg.OutputDir, outcomes, conversionFailures, info); err != nil {
		return res, err
	}
	return res, nil
}

func writeReports(outputDir string, outcomes []pipeline.Outcome, conversionFailures []convert.Failure, info report.RunInfo) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeFile(filepath.Join(outputDir, JSONFileName), func(f *os.File) error {
		return report.WriteJSON(f, outcomes, info)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outputDir, CSVFileName), func(f *os.File) error {
		return report.WriteCSV(f, outcomes)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outputDir, SummaryFileName), func(f *os.File) error {
		return report.WriteSummaryCSV(f, pipeline.Summarize(outcomes), info)
	}); err != nil {
		return err
	}

	_, extractionFailures := pipeline.Partition(outcomes)
	if len(conversionFailures) > 0 || len(extractionFailures) > 0 {
		if err := writeFile(filepath.Join(outputDir, RetryListFileName), func(f *os.File) error {
			return report.WriteRetryList(f, conversionFailures, outcomes, info)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
