package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/fieldops/leadextract/internal/extract"
	"github.com/fieldops/leadextract/internal/pipeline"
)

type metadata struct {
	BatchID        string `json:"batch_id"`
	TotalImages    int    `json:"total_images"`
	Processed      int    `json:"processed"`
	Successful     int    `json:"successful"`
	Failed         int    `json:"failed"`
	ProcessingDate string `json:"processing_date"`
	ModelUsed      string `json:"model_used"`
}

type extractionError struct {
	SourceImage string `json:"source_image"`
	Error       string `json:"error"`
	Timestamp   string `json:"timestamp"`
}

type jsonDocument struct {
	Metadata metadata          `json:"metadata"`
	Contacts []extract.Contact `json:"contacts"`
	Errors   []extractionError `json:"errors"`
}

// WriteJSON renders outcomes as the full-detail JSON document.
func WriteJSON(w io.Writer, outcomes []pipeline.Outcome, info RunInfo) error {
	successes, failures := pipeline.Partition(outcomes)
	summary := pipeline.Summarize(outcomes)

	contacts := make([]extract.Contact, 0, len(successes))
	for _, o := range successes {
		contacts = append(contacts, o.Contact)
	}

	errs := make([]extractionError, 0, len(failures))
	for _, o := range failures {
		errs = append(errs, extractionError{
			SourceImage: o.SourceID,
			Error:       o.Err,
			Timestamp:   info.Date.Format(time.RFC3339),
		})
	}

	doc := jsonDocument{
		Metadata: metadata{
			BatchID:        info.BatchID,
			TotalImages:    summary.Total,
			Processed:      summary.Successful + summary.Failed,
			Successful:     summary.Successful,
			Failed:         summary.Failed,
			ProcessingDate: info.Date.Format(time.RFC3339),
			ModelUsed:      info.Model,
		},
		Contacts: contacts,
		Errors:   errs,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
