package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fieldops/leadextract/internal/convert"
	"github.com/fieldops/leadextract/internal/pipeline"
)

// WriteRetryList writes the plain-text list of every failed image, merging
// conversion failures with extraction failures so a re-run can target exactly
// the sources that produced nothing.
func WriteRetryList(w io.Writer, conversionFailures []convert.Failure, outcomes []pipeline.Outcome, info RunInfo) error {
	_, extractionFailures := pipeline.Partition(outcomes)

	if _, err := fmt.Fprintf(w, "# Failed Image Processing - Retry List\n# Generated: %s\n\n", info.Date.Format(time.RFC3339)); err != nil {
		return err
	}

	if len(conversionFailures) > 0 {
		if _, err := fmt.Fprintln(w, "## Conversion Failures (HEIC -> JPEG)"); err != nil {
			return err
		}
		for _, f := range conversionFailures {
			if _, err := fmt.Fprintf(w, "%s\t# Error: %s\n", f.Filename, f.Error); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if len(extractionFailures) > 0 {
		if _, err := fmt.Fprintln(w, "## Extraction Failures (Contact Extraction)"); err != nil {
			return err
		}
		for _, o := range extractionFailures {
			if _, err := fmt.Fprintf(w, "%s\t# Error: %s\n", o.SourceID, o.Err); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "# Total failures: %d\n", len(conversionFailures)+len(extractionFailures))
	return err
}
