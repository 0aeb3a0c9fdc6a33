// Package providers talks to the exclusion databases and normalizes what they
// return into models.DatabaseResult values.
//
// Each database has a Provider that knows its request shape and status
// vocabulary. Providers return errors freely; the Adapter wrapping every
// provider turns any failure into a warning result so a single database can
// never fail a whole check.
package providers

import (
	"context"
	"time"

	"exclusioncheck/internal/screening/models"
)

// Descriptor is the static metadata of one database.
type Descriptor struct {
	ID   models.DatabaseID
	Name string
	// SearchURL is the public citation shown next to every result.
	SearchURL string
	// DefaultDetails is used when the database answers without details.
	DefaultDetails string
	// FailureDetails tells the reviewer to verify manually after a failed lookup.
	FailureDetails string
	// ReferencePrefix prefixes generated reference ids in mock mode.
	ReferencePrefix string
}

var descriptors = map[models.DatabaseID]Descriptor{
	models.DatabaseMedical: {
		ID:              models.DatabaseMedical,
		Name:            "Medical License Verification",
		SearchURL:       "https://www.fsmb.org/physician-profile/",
		DefaultDetails:  "Medical license verification completed.",
		FailureDetails:  "Unable to verify medical license. Please check manually.",
		ReferencePrefix: "MED",
	},
	models.DatabaseOIG: {
		ID:              models.DatabaseOIG,
		Name:            "OIG Exclusion List",
		SearchURL:       "https://oig.hhs.gov/exclusions/index.asp",
		DefaultDetails:  "OIG exclusion database check completed.",
		FailureDetails:  "Unable to complete OIG exclusion check. Please verify manually.",
		ReferencePrefix: "OIG",
	},
	models.DatabaseSAM: {
		ID:              models.DatabaseSAM,
		Name:            "System for Award Management (SAM)",
		SearchURL:       "https://sam.gov/search/",
		DefaultDetails:  "SAM exclusions database check completed.",
		FailureDetails:  "Unable to complete SAM exclusion check. Please verify manually.",
		ReferencePrefix: "SAM",
	},
	models.DatabaseNSOPW: {
		ID:              models.DatabaseNSOPW,
		Name:            "National Sex Offender Registry",
		SearchURL:       "https://www.nsopw.gov/",
		DefaultDetails:  "National sex offender registry check completed.",
		FailureDetails:  "Unable to complete sex offender registry check. Please verify manually.",
		ReferencePrefix: "NSOPW",
	},
}

// Failure is the result reported when the database could not be checked:
// a warning asking for manual verification, without a reference id.
func (d Descriptor) Failure(at time.Time) models.DatabaseResult {
	return models.DatabaseResult{
		DatabaseID:   d.ID,
		DatabaseName: d.Name,
		Status:       models.StatusWarning,
		SearchDate:   at,
		Details:      d.FailureDetails,
		SearchURL:    d.SearchURL,
	}
}

// DescriptorFor returns the metadata of a known database.
func DescriptorFor(id models.DatabaseID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

// Applicable reports whether a database is screened for the subject.
// The medical license check needs a license number and the issuing state.
func Applicable(id models.DatabaseID, subject models.Subject) bool {
	switch id {
	case models.DatabaseMedical:
		return subject.DocumentType == models.DocumentLicense && subject.State() != ""
	case models.DatabaseOIG, models.DatabaseSAM, models.DatabaseNSOPW:
		return true
	default:
		return false
	}
}

// Finding is what a database reported about a subject.
type Finding struct {
	// Status is empty when the database answered without one.
	Status      models.Status
	Details     string
	ReferenceID string
}

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks Provider

// Provider is the interface every exclusion database implements.
type Provider interface {
	// ID returns the database this provider queries.
	ID() models.DatabaseID

	// Descriptor returns the static metadata of the database.
	Descriptor() Descriptor

	// Applies reports whether the database is screened for this subject.
	Applies(subject models.Subject) bool

	// Lookup performs one authenticated request against the database.
	Lookup(ctx context.Context, subject models.Subject) (*Finding, error)
}
