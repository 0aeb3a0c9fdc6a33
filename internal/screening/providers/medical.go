package providers

import (
	"context"
	"net/http"

	"exclusioncheck/internal/screening/models"
)

// Medical verifies a medical license with the FSMB physician data service.
type Medical struct {
	client *Client
	apiKey string
}

// NewMedical creates the medical license provider.
func NewMedical(client *Client, apiKey string) *Medical {
	return &Medical{client: client, apiKey: apiKey}
}

var medicalVocabulary = vocabulary{
	"active":      models.StatusClear,
	"valid":       models.StatusClear,
	"verified":    models.StatusClear,
	"probation":   models.StatusWarning,
	"expired":     models.StatusWarning,
	"inactive":    models.StatusWarning,
	"restricted":  models.StatusWarning,
	"suspended":   models.StatusExcluded,
	"revoked":     models.StatusExcluded,
	"surrendered": models.StatusExcluded,
}

func (p *Medical) ID() models.DatabaseID { return models.DatabaseMedical }

func (p *Medical) Descriptor() Descriptor { return descriptors[models.DatabaseMedical] }

func (p *Medical) Applies(subject models.Subject) bool {
	return Applicable(models.DatabaseMedical, subject)
}

type medicalRequest struct {
	LicenseNumber string `json:"licenseNumber"`
	State         string `json:"state"`
}

func (p *Medical) Lookup(ctx context.Context, subject models.Subject) (*Finding, error) {
	resp, err := p.client.Do(ctx, Request{
		Database: models.DatabaseMedical,
		Method:   http.MethodPost,
		Path:     "/api/fsmb/verify",
		Body: medicalRequest{
			LicenseNumber: subject.IdentificationNumber,
			State:         subject.State(),
		},
		APIKey: p.apiKey,
	})
	if err != nil {
		return nil, err
	}
	return finding(models.DatabaseMedical, medicalVocabulary, resp)
}
