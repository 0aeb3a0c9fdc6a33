package providers

import (
	"context"
	"net/http"
	"net/url"

	"exclusioncheck/internal/screening/models"
)

// OIG searches the HHS Office of Inspector General exclusion list (LEIE).
type OIG struct {
	client *Client
	apiKey string
}

// NewOIG creates the OIG provider.
func NewOIG(client *Client, apiKey string) *OIG {
	return &OIG{client: client, apiKey: apiKey}
}

var oigVocabulary = vocabulary{
	"no_match":       models.StatusClear,
	"not_found":      models.StatusClear,
	"possible_match": models.StatusWarning,
	"partial_match":  models.StatusWarning,
	"match":          models.StatusExcluded,
}

func (p *OIG) ID() models.DatabaseID { return models.DatabaseOIG }

func (p *OIG) Descriptor() Descriptor { return descriptors[models.DatabaseOIG] }

func (p *OIG) Applies(subject models.Subject) bool {
	return Applicable(models.DatabaseOIG, subject)
}

func (p *OIG) Lookup(ctx context.Context, subject models.Subject) (*Finding, error) {
	q := url.Values{}
	q.Set("firstName", subject.FirstName)
	q.Set("lastName", subject.LastName)
	if subject.DateOfBirth != "" {
		q.Set("dob", subject.DateOfBirth)
	}

	resp, err := p.client.Do(ctx, Request{
		Database: models.DatabaseOIG,
		Method:   http.MethodGet,
		Path:     "/api/oig/search",
		Query:    q,
		APIKey:   p.apiKey,
	})
	if err != nil {
		return nil, err
	}
	return finding(models.DatabaseOIG, oigVocabulary, resp)
}
