package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/leadextract/internal/extract"
	"github.com/fieldops/leadextract/internal/pipeline/worker"
	"github.com/fieldops/leadextract/internal/util"
)

// Job is one unit of extraction work: a converted image on disk plus the
// identifier of the original source file it came from.
type Job struct {
	// SourceID correlates the outcome back to the original photo, e.g.
	// "IMG_0412.HEIC". Present on every outcome, success or failure.
	SourceID string
	// ImagePath points at the converted JPEG the extractor reads.
	ImagePath string
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Outcome is the result of processing one Job.
type Outcome struct {
	SourceID string
	Status   Status
	// Contact is populated only when Status is StatusSuccess.
	Contact extract.Contact
	// Err holds the last attempt's error message when Status is StatusFailed.
	Err string
}

type Options struct {
	MaxConcurrent  int
	MaxAttempts    int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	BackoffBase time.Duration
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

// ExtractAll runs the extractor over all jobs and returns one outcome per job,
// index-aligned with the input.
//
// Extraction failures are recorded per-outcome and never fail the batch; the
// returned error is non-nil only when the context is canceled.
func ExtractAll(ctx context.Context, jobs []Job, extractor extract.Extractor, logger *zap.Logger, opts Options) ([]Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	total := len(jobs)
	completed := 0

	results, err := worker.ProcessAllWithCallback(ctx, jobs,
		func(ctx context.Context, job Job) (extract.Contact, error) {
			contact, err := extractor.Extract(ctx, job.ImagePath)
			if err != nil {
				return extract.Contact{}, err
			}
			if err := contact.Validate(); err != nil {
				return extract.Contact{}, err
			}
			contact.SourceImage = job.SourceID
			return contact, nil
		},
		func(res worker.Result[Job, extract.Contact]) {
			// Callback runs on the collector goroutine, completion order.
			// Advisory only: the caller sees progress, ordering comes from
			// the returned slice.
			completed++
			if res.Err != nil {
				logger.Warn("extraction failed",
					zap.String("source", res.Input.SourceID),
					zap.String("error", util.RedactSecrets(res.Err.Error())),
					zap.Int("completed", completed),
					zap.Int("total", total),
				)
				return
			}
			logger.Info("extraction complete",
				zap.String("source", res.Input.SourceID),
				zap.Int("completed", completed),
				zap.Int("total", total),
			)
		},
		worker.Options{
			Workers:        opts.MaxConcurrent,
			MaxAttempts:    opts.MaxAttempts,
			RequestTimeout: opts.RequestTimeout,
			RateLimitRPS:   opts.RateLimitRPS,
			BackoffBase:    opts.BackoffBase,
			BackoffMin:     opts.BackoffMin,
			BackoffMax:     opts.BackoffMax,
		})
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			outcomes = append(outcomes, Outcome{
				SourceID: res.Input.SourceID,
				Status:   StatusFailed,
				Err:      util.RedactSecrets(res.Err.Error()),
			})
			continue
		}
		outcomes = append(outcomes, Outcome{
			SourceID: res.Input.SourceID,
			Status:   StatusSuccess,
			Contact:  res.Output,
		})
	}
	return outcomes, nil
}
