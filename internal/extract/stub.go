package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Stub is a deterministic Extractor for tests and dry runs. Filenames
// containing "error" fail; everything else yields a minimal high-confidence
// record derived from the filename.
type Stub struct{}

func (Stub) Extract(_ context.Context, imagePath string) (Contact, error) {
	base := filepath.Base(imagePath)
	if strings.Contains(base, "error") {
		return Contact{}, errors.New("forced error")
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Contact{
		FullName:   name,
		Confidence: ConfidenceHigh,
	}, nil
}
