package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Guards and outbound clients return
// these (optionally wrapped) so handlers can translate them into domain errors.
//
// - ErrConflict: another operation already holds the resource (e.g. an export in flight)
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
