package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldops/leadextract/internal/app"
	"github.com/fieldops/leadextract/internal/config"
	"github.com/fieldops/leadextract/internal/extract/gemini"
	"github.com/fieldops/leadextract/internal/util"
	"github.com/fieldops/leadextract/internal/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "%s\n", cfgErr.Error())
		} else {
			fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		}
		return 1
	}

	fs := flag.NewFlagSet("leadextract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var logPath string
	fs.StringVar(&cfg.InputDir, "input", cfg.InputDir, "Directory of HEIC lead-card photos (env: INPUT_DIR)")
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Directory for reports and converted images (env: OUTPUT_DIR)")
	fs.IntVar(&cfg.MaxConcurrent, "max-concurrent", cfg.MaxConcurrent, "Max simultaneous inference calls (env: MAX_CONCURRENT)")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Total attempts per image including the first (env: MAX_ATTEMPTS)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Per-attempt request timeout (env: REQUEST_TIMEOUT)")
	fs.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", cfg.RateLimitRPS, "Global request rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Gemini model name (env: GEMINI_MODEL)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Gemini API base URL override (env: GEMINI_BASE_URL)")
	fs.StringVar(&cfg.ConvertTool, "converter", cfg.ConvertTool, "HEIC converter: magick | sips | heif-convert (env: HEIC_CONVERTER)")
	fs.IntVar(&cfg.JPEGQuality, "quality", cfg.JPEGQuality, "JPEG quality for converted images (env: JPEG_QUALITY)")
	fs.IntVar(&cfg.MaxImageWidth, "max-width", cfg.MaxImageWidth, "Downscale converted images wider than this (env: MAX_IMAGE_WIDTH)")
	fs.StringVar(&logPath, "log-file", "extraction.log", "Structured log file path")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	cfg.ConvertedDir = filepath.Join(cfg.OutputDir, "converted_images")

	logger, err := newLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %s\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	extractor, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Prompt:  cfg.Prompt,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	fmt.Printf("Lead Card Extraction v%s\n", version.Current)
	fmt.Printf("Input directory:  %s\n", cfg.InputDir)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	fmt.Printf("Model:            %s\n", cfg.Model)
	fmt.Printf("Max concurrent:   %d\n", cfg.MaxConcurrent)

	res, err := app.Run(ctx, cfg, extractor, nil, logger)
	switch {
	case errors.Is(err, app.ErrNoInputs):
		fmt.Fprintln(os.Stderr, "Error: no images were converted. Check that:")
		fmt.Fprintf(os.Stderr, "  1. HEIC images exist in: %s\n", cfg.InputDir)
		fmt.Fprintln(os.Stderr, "  2. Images have a .HEIC or .heic extension")
		return 1
	case err != nil:
		fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	fmt.Printf("\nConverted:  %d (%d failed)\n", res.Converted, res.ConversionFailures)
	fmt.Printf("Extracted:  %d successful, %d failed\n", res.Summary.Successful, res.Summary.Failed)
	fmt.Printf("Reports written to: %s\n", cfg.OutputDir)

	if res.Summary.Total > 0 && res.Summary.Successful == 0 {
		fmt.Fprintln(os.Stderr, "all extractions failed, see retry list and log")
		return 1
	}
	return 0
}

// newLogger writes structured logs to the log file; stage progress for humans
// goes to the terminal separately.
func newLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	return cfg.Build()
}
