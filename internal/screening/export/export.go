// Package export renders exclusion check results as CSV, PDF and printable
// HTML. Every renderer is a pure function of its input; the generation time
// is passed in rather than read from the clock.
package export

import (
	"errors"
	"time"

	"exclusioncheck/internal/screening/models"
)

// ErrNoResults is returned by renderers that need at least one result.
var ErrNoResults = errors.New("no results to export")

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "03:04 PM"
	dobLayout  = "2006-01-02"
	fileDate   = "2006-01-02"

	notChecked = "not checked"
)

// formatDate renders a timestamp as "Mar 14, 2025".
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// formatDOB renders a YYYY-MM-DD date of birth like formatDate and echoes
// anything it cannot parse.
func formatDOB(raw string) string {
	t, err := time.Parse(dobLayout, raw)
	if err != nil {
		return raw
	}
	return formatDate(t)
}

// databaseStatus is the status text for one database column.
func databaseStatus(r models.OverallResult, id models.DatabaseID) string {
	dr, ok := r.DatabaseResult(id)
	if !ok {
		return notChecked
	}
	return string(dr.Status)
}
