package providers

import (
	"fmt"
	"strings"

	"exclusioncheck/internal/screening/models"
)

// MissingStatusPolicy decides what a response without a status means.
type MissingStatusPolicy string

const (
	// MissingAsClear treats a silent database as having found nothing.
	MissingAsClear MissingStatusPolicy = "clear"
	// MissingAsWarning asks the reviewer to verify a silent database manually.
	MissingAsWarning MissingStatusPolicy = "warning"
)

// Status maps the policy onto the status it produces.
func (p MissingStatusPolicy) Status() models.Status {
	switch p {
	case MissingAsWarning:
		return models.StatusWarning
	default:
		return models.StatusClear
	}
}

// ParseMissingStatusPolicy accepts "clear" or "warning".
func ParseMissingStatusPolicy(raw string) (MissingStatusPolicy, error) {
	switch p := MissingStatusPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case MissingAsClear, MissingAsWarning:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing status policy %q", raw)
	}
}

// vocabulary maps a database's own status words onto the three statuses.
// The canonical words are always accepted.
type vocabulary map[string]models.Status

func (v vocabulary) normalize(database models.DatabaseID, raw *string) (models.Status, error) {
	if raw == nil {
		return "", nil
	}
	word := strings.ToLower(strings.TrimSpace(*raw))
	if word == "" {
		return "", nil
	}
	if s, err := models.ParseStatus(word); err == nil {
		return s, nil
	}
	if s, ok := v[word]; ok {
		return s, nil
	}
	return "", NewProviderError(ErrorBadData, database, fmt.Sprintf("unrecognized status %q", *raw), nil)
}
