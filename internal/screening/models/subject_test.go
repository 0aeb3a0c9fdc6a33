package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubject() Subject {
	return Subject{
		FirstName:            "Jane",
		LastName:             "Doe",
		Email:                "jane@example.com",
		DateOfBirth:          "1980-05-15",
		DocumentType:         DocumentSSN,
		IdentificationNumber: "123-45-6789",
		Address:              &Address{Street: "1 Main St", City: "Albany", State: "NY", ZipCode: "12207"},
	}
}

func TestSubject_CheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Subject)
		wantErr string
	}{
		{name: "valid", mutate: func(*Subject) {}},
		{name: "no address", mutate: func(s *Subject) { s.Address = nil }},
		{name: "territory", mutate: func(s *Subject) { s.Address.State = "PR" }},
		{
			name:    "blank identification number",
			mutate:  func(s *Subject) { s.IdentificationNumber = "   " },
			wantErr: "identification number is required",
		},
		{
			name:    "unknown document type",
			mutate:  func(s *Subject) { s.DocumentType = "passport" },
			wantErr: `unsupported document type "passport"`,
		},
		{
			name:    "invalid state",
			mutate:  func(s *Subject) { s.Address.State = "XX" },
			wantErr: `unknown state code "XX"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubject()
			tt.mutate(&s)
			err := s.CheckInvariants()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSubject)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubject_NormalizeDoesNotAliasAddress(t *testing.T) {
	s := validSubject()
	s.Address.State = " ny "
	s.IdentificationNumber = " 123 "

	n := s.Normalize()
	assert.Equal(t, "NY", n.State())
	assert.Equal(t, "123", n.IdentificationNumber)
	assert.Equal(t, " ny ", s.Address.State, "original left untouched")
}

func TestOverallResult_Validate(t *testing.T) {
	r := OverallResult{
		ResultID: "VER-1",
		Status:   StatusWarning,
		DatabaseResults: []DatabaseResult{
			{DatabaseID: DatabaseOIG, Status: StatusWarning},
			{DatabaseID: DatabaseSAM, Status: StatusClear},
		},
	}
	require.NoError(t, r.Validate())

	dr, ok := r.DatabaseResult(DatabaseSAM)
	require.True(t, ok)
	assert.Equal(t, StatusClear, dr.Status)
	_, ok = r.DatabaseResult(DatabaseMedical)
	assert.False(t, ok)

	r.DatabaseResults = append(r.DatabaseResults, DatabaseResult{DatabaseID: DatabaseOIG, Status: StatusClear})
	assert.ErrorContains(t, r.Validate(), "duplicate database")

	r.DatabaseResults = nil
	r.Status = "unknown"
	assert.ErrorContains(t, r.Validate(), "invalid status")
}
