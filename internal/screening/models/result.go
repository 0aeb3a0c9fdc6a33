package models

import (
	"fmt"
	"time"
)

// DatabaseResult is the normalized outcome of one database lookup.
type DatabaseResult struct {
	DatabaseID   DatabaseID `json:"databaseId"`
	DatabaseName string     `json:"databaseName"`
	Status       Status     `json:"status"`
	SearchDate   time.Time  `json:"searchDate"`
	Details      string     `json:"details"`
	SearchURL    string     `json:"searchUrl"`
	ReferenceID  string     `json:"referenceId,omitempty"`
}

// OverallResult is the aggregated screening of one subject.
type OverallResult struct {
	ResultID             string           `json:"resultId"`
	FirstName            string           `json:"firstName"`
	LastName             string           `json:"lastName"`
	DateOfBirth          string           `json:"dateOfBirth"`
	Email                string           `json:"email,omitempty"`
	DocumentType         DocumentType     `json:"documentType,omitempty"`
	IdentificationNumber string           `json:"identificationNumber,omitempty"`
	Address              *Address         `json:"address,omitempty"`
	Status               Status           `json:"status"`
	Message              string           `json:"message"`
	CheckDate            time.Time        `json:"checkDate"`
	DatabaseResults      []DatabaseResult `json:"databaseResults"`
}

// DatabaseResult returns the result for id, if that database was checked.
func (r OverallResult) DatabaseResult(id DatabaseID) (DatabaseResult, bool) {
	for _, dr := range r.DatabaseResults {
		if dr.DatabaseID == id {
			return dr, true
		}
	}
	return DatabaseResult{}, false
}

// Validate checks a result received back from a client, e.g. for export.
func (r OverallResult) Validate() error {
	if r.ResultID == "" {
		return fmt.Errorf("result id is required")
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("result %s: invalid status %q", r.ResultID, r.Status)
	}
	seen := make(map[DatabaseID]bool, len(r.DatabaseResults))
	for _, dr := range r.DatabaseResults {
		if !dr.DatabaseID.IsValid() {
			return fmt.Errorf("result %s: unknown database %q", r.ResultID, dr.DatabaseID)
		}
		if seen[dr.DatabaseID] {
			return fmt.Errorf("result %s: duplicate database %q", r.ResultID, dr.DatabaseID)
		}
		seen[dr.DatabaseID] = true
		if !dr.Status.IsValid() {
			return fmt.Errorf("result %s: database %s has invalid status %q", r.ResultID, dr.DatabaseID, dr.Status)
		}
	}
	return nil
}
