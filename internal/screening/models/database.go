// Package models defines the screening data model: subjects, statuses, and results.
package models

import "fmt"

// DatabaseID identifies one of the screened databases.
type DatabaseID string

const (
	DatabaseMedical DatabaseID = "medical"
	DatabaseOIG     DatabaseID = "oig"
	DatabaseSAM     DatabaseID = "sam"
	DatabaseNSOPW   DatabaseID = "nsopw"
)

// DatabaseOrder is the fixed presentation and dispatch order.
var DatabaseOrder = []DatabaseID{DatabaseMedical, DatabaseOIG, DatabaseSAM, DatabaseNSOPW}

// IsValid reports whether id names a known database.
func (id DatabaseID) IsValid() bool {
	switch id {
	case DatabaseMedical, DatabaseOIG, DatabaseSAM, DatabaseNSOPW:
		return true
	default:
		return false
	}
}

// Position returns the index of id in DatabaseOrder.
func (id DatabaseID) Position() int {
	for i, known := range DatabaseOrder {
		if known == id {
			return i
		}
	}
	panic(fmt.Sprintf("models: unknown database %q", string(id)))
}

func (id DatabaseID) String() string { return string(id) }
