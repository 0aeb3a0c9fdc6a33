package providers

import (
	"context"
	"net/http"
	"net/url"

	"exclusioncheck/internal/screening/models"
)

// NSOPW searches the Dru Sjodin National Sex Offender Public Website.
type NSOPW struct {
	client *Client
	apiKey string
}

// NewNSOPW creates the sex offender registry provider.
func NewNSOPW(client *Client, apiKey string) *NSOPW {
	return &NSOPW{client: client, apiKey: apiKey}
}

var nsopwVocabulary = vocabulary{
	"not_registered": models.StatusClear,
	"no_match":       models.StatusClear,
	"possible_match": models.StatusWarning,
	"registered":     models.StatusExcluded,
	"match":          models.StatusExcluded,
}

func (p *NSOPW) ID() models.DatabaseID { return models.DatabaseNSOPW }

func (p *NSOPW) Descriptor() Descriptor { return descriptors[models.DatabaseNSOPW] }

func (p *NSOPW) Applies(subject models.Subject) bool {
	return Applicable(models.DatabaseNSOPW, subject)
}

func (p *NSOPW) Lookup(ctx context.Context, subject models.Subject) (*Finding, error) {
	q := url.Values{}
	q.Set("firstName", subject.FirstName)
	q.Set("lastName", subject.LastName)
	if state := subject.State(); state != "" {
		q.Set("state", state)
	}

	resp, err := p.client.Do(ctx, Request{
		Database: models.DatabaseNSOPW,
		Method:   http.MethodGet,
		Path:     "/api/nsopw/search",
		Query:    q,
		APIKey:   p.apiKey,
	})
	if err != nil {
		return nil, err
	}
	return finding(models.DatabaseNSOPW, nsopwVocabulary, resp)
}
