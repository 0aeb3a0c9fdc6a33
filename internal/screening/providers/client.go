package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"exclusioncheck/internal/screening/models"
)

// maxResponseBytes bounds how much of a database response is read.
const maxResponseBytes = 1 << 20

const responseSchemaURL = "https://exclusion-check.local/schemas/database-response.schema.json"

// responseSchema is the contract every database response must satisfy.
// Unknown fields are allowed; the known ones must have the right types.
const responseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "status": {"type": ["string", "null"]},
    "details": {"type": ["string", "null"]},
    "referenceId": {"type": ["string", "null"]}
  }
}`

// Request is one authenticated call to a database endpoint.
type Request struct {
	Database models.DatabaseID
	Method   string
	Path     string
	Query    url.Values
	Body     any
	APIKey   string
}

// Response is the decoded body of a database answer.
type Response struct {
	Status      *string `json:"status"`
	Details     *string `json:"details"`
	ReferenceID *string `json:"referenceId"`
}

// Client performs database requests against the registry API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	schema     *jsonschema.Schema
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a client for the registry API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", baseURL)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(responseSchemaURL, strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("response schema load failed: %w", err)
	}
	schema, err := c.Compile(responseSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("response schema compile failed: %w", err)
	}

	cl := &Client{
		baseURL: u,
		// per-call deadlines come from the context
		httpClient: &http.Client{Transport: http.DefaultTransport},
		schema:     schema,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

// Do sends the request and decodes a schema-valid response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, req.Database, "build request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, req.Database, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, req.Database, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(req.Database, resp.StatusCode)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, NewProviderError(ErrorBadData, req.Database, "response is not JSON", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, NewProviderError(ErrorBadData, req.Database, "response failed schema validation", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, NewProviderError(ErrorBadData, req.Database, "decode response", err)
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}
	return httpReq, nil
}

func classifyTransportError(ctx context.Context, database models.DatabaseID, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewProviderError(ErrorTimeout, database, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewProviderError(ErrorTimeout, database, "request timed out", err)
	}
	return NewProviderError(ErrorProviderOutage, database, "request failed", err)
}

func classifyStatus(database models.DatabaseID, code int) error {
	msg := fmt.Sprintf("unexpected HTTP status %d", code)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewProviderError(ErrorAuthentication, database, msg, nil)
	case code == http.StatusNotFound:
		return NewProviderError(ErrorNotFound, database, msg, nil)
	case code == http.StatusTooManyRequests:
		return NewProviderError(ErrorRateLimited, database, msg, nil)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return NewProviderError(ErrorTimeout, database, msg, nil)
	case code >= 500:
		return NewProviderError(ErrorProviderOutage, database, msg, nil)
	default:
		return NewProviderError(ErrorContractMismatch, database, msg, nil)
	}
}

// finding builds a Finding from a decoded response.
func finding(database models.DatabaseID, vocab vocabulary, resp *Response) (*Finding, error) {
	status, err := vocab.normalize(database, resp.Status)
	if err != nil {
		return nil, err
	}
	f := &Finding{Status: status}
	if resp.Details != nil {
		f.Details = strings.TrimSpace(*resp.Details)
	}
	if resp.ReferenceID != nil {
		f.ReferenceID = strings.TrimSpace(*resp.ReferenceID)
	}
	return f, nil
}
