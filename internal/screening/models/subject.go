package models

import (
	"errors"
	"fmt"
	"strings"
)

// DocumentType is the kind of identification number a subject supplied.
type DocumentType string

const (
	DocumentSSN           DocumentType = "ssn"
	DocumentDriverLicense DocumentType = "driverLicense"
	DocumentOther         DocumentType = "other"
	DocumentLicense       DocumentType = "license"
	DocumentEIN           DocumentType = "ein"
	DocumentDUNS          DocumentType = "duns"
)

// IsValid reports whether d is a supported document type.
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentSSN, DocumentDriverLicense, DocumentOther, DocumentLicense, DocumentEIN, DocumentDUNS:
		return true
	default:
		return false
	}
}

// Address is the subject's postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Subject is the individual being screened. It lives only for the duration of a request.
type Subject struct {
	FirstName            string       `json:"firstName"`
	LastName             string       `json:"lastName"`
	Email                string       `json:"email"`
	DateOfBirth          string       `json:"dateOfBirth"`
	DocumentType         DocumentType `json:"documentType"`
	IdentificationNumber string       `json:"identificationNumber"`
	Address              *Address     `json:"address,omitempty"`
}

// State returns the two-letter state code, or "" when no address is present.
func (s Subject) State() string {
	if s.Address == nil {
		return ""
	}
	return s.Address.State
}

// ErrInvalidSubject marks subjects that break the record invariants.
var ErrInvalidSubject = errors.New("invalid subject")

// CheckInvariants verifies the fields the check engine relies on. Form-level
// validation (name formats, age, zip codes) happens before a subject gets here.
func (s Subject) CheckInvariants() error {
	var problems []string
	if strings.TrimSpace(s.IdentificationNumber) == "" {
		problems = append(problems, "identification number is required")
	}
	if !s.DocumentType.IsValid() {
		problems = append(problems, fmt.Sprintf("unsupported document type %q", s.DocumentType))
	}
	if s.Address != nil && !IsUSPSState(s.Address.State) {
		problems = append(problems, fmt.Sprintf("unknown state code %q", s.Address.State))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSubject, strings.Join(problems, "; "))
	}
	return nil
}

// Normalize trims identity fields and upper-cases the state code.
func (s Subject) Normalize() Subject {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.DateOfBirth = strings.TrimSpace(s.DateOfBirth)
	s.IdentificationNumber = strings.TrimSpace(s.IdentificationNumber)
	if s.Address != nil {
		addr := *s.Address
		addr.State = strings.ToUpper(strings.TrimSpace(addr.State))
		s.Address = &addr
	}
	return s
}

var uspsStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {}, "GA": {},
	"HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {},
	"NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
	"DC": {},
	// territories
	"AS": {}, "GU": {}, "MP": {}, "PR": {}, "VI": {},
}

// IsUSPSState reports whether code is a USPS state, district or territory code.
func IsUSPSState(code string) bool {
	_, ok := uspsStates[code]
	return ok
}
