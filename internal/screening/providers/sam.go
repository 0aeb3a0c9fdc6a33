package providers

import (
	"context"
	"net/http"
	"net/url"

	"exclusioncheck/internal/screening/models"
)

// SAM searches exclusion records in the System for Award Management.
// Entities can also be matched by EIN or DUNS number.
type SAM struct {
	client *Client
	apiKey string
}

// NewSAM creates the SAM provider.
func NewSAM(client *Client, apiKey string) *SAM {
	return &SAM{client: client, apiKey: apiKey}
}

var samVocabulary = vocabulary{
	"inactive":         models.StatusClear,
	"no_records":       models.StatusClear,
	"pending":          models.StatusWarning,
	"possible_match":   models.StatusWarning,
	"active":           models.StatusExcluded,
	"active_exclusion": models.StatusExcluded,
}

func (p *SAM) ID() models.DatabaseID { return models.DatabaseSAM }

func (p *SAM) Descriptor() Descriptor { return descriptors[models.DatabaseSAM] }

func (p *SAM) Applies(subject models.Subject) bool {
	return Applicable(models.DatabaseSAM, subject)
}

func (p *SAM) Lookup(ctx context.Context, subject models.Subject) (*Finding, error) {
	q := url.Values{}
	q.Set("firstName", subject.FirstName)
	q.Set("lastName", subject.LastName)
	switch subject.DocumentType {
	case models.DocumentEIN:
		q.Set("ein", subject.IdentificationNumber)
	case models.DocumentDUNS:
		q.Set("duns", subject.IdentificationNumber)
	}

	resp, err := p.client.Do(ctx, Request{
		Database: models.DatabaseSAM,
		Method:   http.MethodGet,
		Path:     "/api/sam/exclusions",
		Query:    q,
		APIKey:   p.apiKey,
	})
	if err != nil {
		return nil, err
	}
	return finding(models.DatabaseSAM, samVocabulary, resp)
}
