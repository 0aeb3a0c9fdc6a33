package models

import (
	"fmt"
	"strings"
)

// Status is the outcome of a screening, per database or overall.
type Status string

const (
	StatusClear    Status = "clear"
	StatusWarning  Status = "warning"
	StatusExcluded Status = "excluded"
)

// AllStatuses lists every status in ascending severity.
var AllStatuses = []Status{StatusClear, StatusWarning, StatusExcluded}

// Severity orders statuses: clear < warning < excluded.
// An unknown status panics; statuses are validated at every boundary.
func (s Status) Severity() int {
	switch s {
	case StatusClear:
		return 0
	case StatusWarning:
		return 1
	case StatusExcluded:
		return 2
	default:
		panic(fmt.Sprintf("models: unknown status %q", string(s)))
	}
}

// IsValid reports whether s is one of the three statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusClear, StatusWarning, StatusExcluded:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts the canonical status words case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return s, nil
}

// Worst reduces statuses to the most severe one. An empty input is clear.
// The result does not depend on the order of the input.
func Worst(statuses ...Status) Status {
	worst := StatusClear
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}
