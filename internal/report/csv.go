package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/fieldops/leadextract/internal/pipeline"
)

// Header returns the stable 16-column CSV layout for extracted contacts.
func Header() []string {
	return []string{
		"source_image",
		"full_name",
		"company_name",
		"job_title",
		"email",
		"phone_number",
		"mobile_number",
		"address",
		"city",
		"state",
		"zip_code",
		"country",
		"last_contact_date",
		"website",
		"notes",
		"confidence",
	}
}

// WriteCSV writes successful contacts using the stable Header() ordering. The
// header row is written even when there are no successes.
func WriteCSV(w io.Writer, outcomes []pipeline.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	successes, _ := pipeline.Partition(outcomes)
	for _, o := range successes {
		c := o.Contact
		if err := cw.Write([]string{
			c.SourceImage,
			c.FullName,
			c.CompanyName,
			c.JobTitle,
			c.Email,
			c.PhoneNumber,
			c.MobileNumber,
			c.Address,
			c.City,
			c.State,
			c.ZipCode,
			c.Country,
			c.LastContactDate,
			c.Website,
			c.Notes,
			string(c.Confidence),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the single-row run summary companion file.
func WriteSummaryCSV(w io.Writer, summary pipeline.Summary, info RunInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"batch_id", "total_images", "successful", "failed", "processing_date", "model_used"}); err != nil {
		return err
	}
	if err := cw.Write([]string{
		info.BatchID,
		strconv.Itoa(summary.Total),
		strconv.Itoa(summary.Successful),
		strconv.Itoa(summary.Failed),
		info.Date.Format(time.RFC3339),
		info.Model,
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
