package extract

import (
	"context"
	"fmt"
	"strings"
)

// Confidence is the coarse self-reported quality tier attached to every
// extracted record.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Contact is the structured record extracted from one lead-card photo.
//
// Every field except Confidence is optional: an empty string means the field
// was not visible in the source image, not that extraction failed.
type Contact struct {
	SourceImage string `json:"source_image"`

	FullName    string `json:"full_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`

	PhoneNumber  string `json:"phone_number,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Email        string `json:"email,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`

	LastContactDate string `json:"last_contact_date,omitempty"`
	Website         string `json:"website,omitempty"`
	Notes           string `json:"notes,omitempty"`

	Confidence Confidence `json:"confidence"`
}

// Validate applies the minimal structural check a record must pass before it
// counts as a successful extraction: a known, non-empty confidence tier.
func (c Contact) Validate() error {
	switch Confidence(strings.ToLower(strings.TrimSpace(string(c.Confidence)))) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return nil
	case "":
		return fmt.Errorf("missing confidence tier")
	default:
		return fmt.Errorf("unknown confidence tier %q", c.Confidence)
	}
}

// Extractor extracts a structured contact record from a single image file.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (Contact, error)
}

// ExtractFunc adapts a function to the Extractor interface.
type ExtractFunc func(ctx context.Context, imagePath string) (Contact, error)

func (f ExtractFunc) Extract(ctx context.Context, imagePath string) (Contact, error) {
	return f(ctx, imagePath)
}
