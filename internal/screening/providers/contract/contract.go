// Package contract holds reusable checks that every database provider must pass.
package contract

import (
	"context"
	"testing"
	"time"

	"exclusioncheck/internal/screening/models"
	"exclusioncheck/internal/screening/providers"
)

// ContractTest defines a successful lookup and its expected normalized status.
type ContractTest struct {
	Name           string
	Provider       providers.Provider
	Subject        models.Subject
	ExpectedStatus models.Status
	ValidateFunc   func(finding *providers.Finding) error
}

// ContractSuite is a collection of contract tests for a provider
type ContractSuite struct {
	Database models.DatabaseID
	Tests    []ContractTest
}

// Run executes all contract tests in the suite
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			if test.Provider.ID() != s.Database {
				t.Fatalf("expected provider for %s, got %s", s.Database, test.Provider.ID())
			}
			if !test.Provider.Applies(test.Subject) {
				t.Fatalf("provider %s does not apply to the contract subject", s.Database)
			}

			finding, err := test.Provider.Lookup(context.Background(), test.Subject)
			if err != nil {
				t.Fatalf("provider lookup failed: %v", err)
			}
			if finding.Status != test.ExpectedStatus {
				t.Errorf("expected status %q, got %q", test.ExpectedStatus, finding.Status)
			}
			if finding.Status != "" && !finding.Status.IsValid() {
				t.Errorf("status %q outside the closed set", finding.Status)
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(finding); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// DescriptorTest validates that the provider's static metadata is complete.
type DescriptorTest struct {
	Provider providers.Provider
}

// Run executes a descriptor test
func (dt *DescriptorTest) Run(t *testing.T) {
	d := dt.Provider.Descriptor()
	if d.ID != dt.Provider.ID() {
		t.Errorf("descriptor id %q does not match provider %q", d.ID, dt.Provider.ID())
	}
	if d.Name == "" {
		t.Error("display name not set")
	}
	if d.SearchURL == "" {
		t.Error("search url not set")
	}
	if d.DefaultDetails == "" {
		t.Error("default details not set")
	}
	if d.FailureDetails == "" {
		t.Error("failure details not set")
	}
	if d.ReferencePrefix == "" {
		t.Error("reference prefix not set")
	}
}

// ErrorContractTest validates that provider errors follow the taxonomy
type ErrorContractTest struct {
	Name          string
	Provider      providers.Provider
	Subject       models.Subject
	ExpectedError providers.ErrorCategory
}

// Run executes an error contract test
func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Run(ect.Name, func(t *testing.T) {
		_, err := ect.Provider.Lookup(context.Background(), ect.Subject)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if category := providers.GetCategory(err); category != ect.ExpectedError {
			t.Errorf("expected error category %s, got %s (%v)", ect.ExpectedError, category, err)
		}
	})
}

// DegradationTest validates that a failing provider, once wrapped in an
// Adapter, produces the database's warning result instead of an error.
type DegradationTest struct {
	Name    string
	Adapter *providers.Adapter
	Subject models.Subject
}

// Run executes a degradation test
func (dt *DegradationTest) Run(t *testing.T) {
	t.Run(dt.Name, func(t *testing.T) {
		before := time.Now()
		result := dt.Adapter.Check(context.Background(), dt.Subject)
		desc := dt.Adapter.Descriptor()

		if result.DatabaseID != desc.ID {
			t.Errorf("expected database %s, got %s", desc.ID, result.DatabaseID)
		}
		if result.Status != models.StatusWarning {
			t.Errorf("expected warning, got %s", result.Status)
		}
		if result.Details != desc.FailureDetails {
			t.Errorf("expected failure details %q, got %q", desc.FailureDetails, result.Details)
		}
		if result.ReferenceID != "" {
			t.Errorf("expected empty reference id, got %q", result.ReferenceID)
		}
		if result.SearchURL != desc.SearchURL {
			t.Errorf("expected citation %q, got %q", desc.SearchURL, result.SearchURL)
		}
		if result.SearchDate.Before(before.Add(-time.Second)) {
			t.Errorf("search date %v not captured at completion", result.SearchDate)
		}
	})
}
