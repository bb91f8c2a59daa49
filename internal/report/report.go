// Package report renders batch results into their downstream formats:
// a full-detail JSON document, a flattened CSV of successful contacts with a
// companion summary CSV, and a plain-text retry list merging conversion and
// extraction failures.
package report

import (
	"time"

	"github.com/google/uuid"
)

// RunInfo carries batch-level metadata stamped into every export.
type RunInfo struct {
	BatchID string
	Model   string
	Date    time.Time
}

// NewRunInfo allocates a fresh batch ID for one run.
func NewRunInfo(model string, date time.Time) RunInfo {
	return RunInfo{
		BatchID: uuid.NewString(),
		Model:   model,
		Date:    date,
	}
}
