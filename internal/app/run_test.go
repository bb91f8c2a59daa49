package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/leadextract/internal/app"
	"github.com/fieldops/leadextract/internal/config"
	"github.com/fieldops/leadextract/internal/extract"
)

// fakeRunner stands in for the external HEIC converter and writes the JPEG
// output the pipeline expects.
type fakeRunner struct{}

func (fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	for _, a := range args {
		if filepath.Ext(a) == ".jpg" {
			return nil, os.WriteFile(a, []byte("jpeg"), 0o644)
		}
	}
	return nil, errors.New("no output path in args")
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	outDir := t.TempDir()
	return config.Config{
		InputDir:       t.TempDir(),
		OutputDir:      outDir,
		ConvertedDir:   filepath.Join(outDir, "converted_images"),
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		MaxConcurrent:  2,
		MaxAttempts:    3,
		RequestTimeout: 1 * time.Second,
		BackoffBase:    1 * time.Millisecond,
		BackoffMin:     1 * time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
		JPEGQuality:    90,
		MaxImageWidth:  2048,
		ConvertTool:    "magick",
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	for _, name := range []string{"IMG_0001.HEIC", "IMG_0002-error.HEIC", "IMG_0003.HEIC"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, name), []byte("heic"), 0o644))
	}

	res, err := app.Run(context.Background(), cfg, extract.Stub{}, fakeRunner{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Converted)
	assert.Equal(t, 0, res.ConversionFailures)
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, 1, res.Summary.Failed)

	for _, name := range []string{app.JSONFileName, app.CSVFileName, app.SummaryFileName, app.RetryListFileName} {
		_, statErr := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, statErr, "missing report %s", name)
	}

	retry, err := os.ReadFile(filepath.Join(cfg.OutputDir, app.RetryListFileName))
	require.NoError(t, err)
	assert.Contains(t, string(retry), "IMG_0002-error.HEIC")
}

func TestRunAllSuccessesSkipsRetryList(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "IMG_0001.HEIC"), []byte("heic"), 0o644))

	res, err := app.Run(context.Background(), cfg, extract.Stub{}, fakeRunner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Successful)

	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, app.RetryListFileName))
	assert.True(t, os.IsNotExist(statErr), "retry list must not exist for a clean run")

	csvBytes, err := os.ReadFile(filepath.Join(cfg.OutputDir, app.CSVFileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvBytes), "source_image,full_name,"))
}

func TestRunNoInputs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	res, err := app.Run(context.Background(), cfg, extract.Stub{}, fakeRunner{}, nil)
	require.ErrorIs(t, err, app.ErrNoInputs)
	assert.Equal(t, 0, res.Converted)
}
