package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Runner executes an external conversion tool. Injected so tests can fake the
// tool instead of requiring it on PATH.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs the tool as a subprocess and returns combined output for
// error reporting.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Converted records one successful HEIC -> JPEG conversion.
type Converted struct {
	// SourceName is the original filename, e.g. "IMG_0412.HEIC".
	SourceName string
	// Path is the converted JPEG on disk.
	Path string
}

// Failure records one conversion that was skipped. Stage is always
// "conversion" so downstream reporting can merge these with extraction
// failures.
type Failure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
	Stage    string `json:"stage"`
}

type Options struct {
	// Tool selects the external converter: "magick", "sips" or "heif-convert".
	Tool     string
	Quality  int
	MaxWidth int
}

func (o Options) withDefaults() Options {
	if o.Tool == "" {
		o.Tool = "magick"
	}
	if o.Quality <= 0 {
		o.Quality = 90
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = 2048
	}
	return o
}

type Converter struct {
	inputDir  string
	outputDir string
	opts      Options
	runner    Runner
	logger    *zap.Logger
}

func New(inputDir, outputDir string, opts Options, runner Runner, logger *zap.Logger) *Converter {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		inputDir:  inputDir,
		outputDir: outputDir,
		opts:      opts.withDefaults(),
		runner:    runner,
		logger:    logger,
	}
}

// ConvertAll converts every HEIC file in the input directory to JPEG.
// Individual failures are collected and skipped, never aborting the scan. The
// converted list keeps the input directory's lexical order.
func (c *Converter) ConvertAll(ctx context.Context) ([]Converted, []Failure, error) {
	entries, err := os.ReadDir(c.inputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".heic") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c.logger.Info("found HEIC files to convert", zap.Int("count", len(names)))

	var converted []Converted
	var failures []Failure
	for _, name := range names {
		out, err := c.convertOne(ctx, name)
		if err != nil {
			c.logger.Error("conversion failed",
				zap.String("file", name),
				zap.String("error", err.Error()),
			)
			failures = append(failures, Failure{
				Filename: name,
				Error:    err.Error(),
				Stage:    "conversion",
			})
			continue
		}
		c.logger.Info("converted", zap.String("file", name), zap.String("output", out))
		converted = append(converted, Converted{SourceName: name, Path: out})
	}

	if len(failures) > 0 {
		c.logger.Warn("some conversions failed", zap.Int("failed", len(failures)))
	}
	return converted, failures, nil
}

func (c *Converter) convertOne(ctx context.Context, name string) (string, error) {
	in := filepath.Join(c.inputDir, name)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	out := filepath.Join(c.outputDir, stem+".jpg")

	quality := strconv.Itoa(c.opts.Quality)
	maxWidth := strconv.Itoa(c.opts.MaxWidth)

	var outb []byte
	var err error
	switch c.opts.Tool {
	case "magick":
		// "NNNN>" only shrinks images wider than the cap.
		outb, err = c.runner.Run(ctx, "magick", in,
			"-auto-orient",
			"-resize", maxWidth+">",
			"-quality", quality,
			out)
	case "sips":
		outb, err = c.runner.Run(ctx, "sips",
			"-s", "format", "jpeg",
			"-s", "formatOptions", quality,
			"--resampleHeightWidthMax", maxWidth,
			in, "--out", out)
	case "heif-convert":
		outb, err = c.runner.Run(ctx, "heif-convert", "-q", quality, in, out)
	default:
		return "", fmt.Errorf("unsupported converter %q: use one of magick | sips | heif-convert", c.opts.Tool)
	}
	if err != nil {
		msg := strings.TrimSpace(string(outb))
		if msg != "" {
			return "", fmt.Errorf("%s failed: %v: %s", c.opts.Tool, err, msg)
		}
		return "", fmt.Errorf("%s failed: %w", c.opts.Tool, err)
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("conversion produced no output: %v", statErr)
	}
	return out, nil
}
