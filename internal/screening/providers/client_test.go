package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exclusioncheck/internal/screening/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func janeDoe() models.Subject {
	return models.Subject{
		FirstName:            "Jane",
		LastName:             "Doe",
		DateOfBirth:          "1980-04-12",
		DocumentType:         models.DocumentSSN,
		IdentificationNumber: "123-45-6789",
		Address:              &models.Address{Street: "1 Main St", City: "Albany", State: "NY", ZipCode: "12207"},
	}
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://registry.local")
	assert.Error(t, err)

	_, err = NewClient("://nope")
	assert.Error(t, err)
}

func TestClient_SendsBearerCredential(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"status":"clear"}`)
	})

	resp, err := client.Do(context.Background(), Request{
		Database: models.DatabaseOIG,
		Path:     "/api/oig/search",
		APIKey:   "dev_oig_key",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Status)
	assert.Equal(t, "clear", *resp.Status)
	assert.Equal(t, "Bearer dev_oig_key", gotAuth)
	assert.Equal(t, "/api/oig/search", gotPath)
}

func TestClient_ClassifiesHTTPStatus(t *testing.T) {
	tests := []struct {
		code     int
		category ErrorCategory
	}{
		{http.StatusUnauthorized, ErrorAuthentication},
		{http.StatusForbidden, ErrorAuthentication},
		{http.StatusNotFound, ErrorNotFound},
		{http.StatusTooManyRequests, ErrorRateLimited},
		{http.StatusGatewayTimeout, ErrorTimeout},
		{http.StatusBadGateway, ErrorProviderOutage},
		{http.StatusInternalServerError, ErrorProviderOutage},
		{http.StatusBadRequest, ErrorContractMismatch},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			})
			_, err := client.Do(context.Background(), Request{Database: models.DatabaseSAM, Path: "/api/sam/exclusions"})
			require.Error(t, err)
			assert.Equal(t, tt.category, GetCategory(err))
		})
	}
}

func TestClient_MalformedResponsesAreBadData(t *testing.T) {
	bodies := map[string]string{
		"not json":        `<html>oops</html>`,
		"array":           `[{"status":"clear"}]`,
		"numeric status":  `{"status": 3}`,
		"object details":  `{"status":"clear","details":{"text":"x"}}`,
		"boolean ref":     `{"referenceId": true}`,
		"truncated":       `{"status":"cle`,
		"string document": `"clear"`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := client.Do(context.Background(), Request{Database: models.DatabaseNSOPW, Path: "/api/nsopw/search"})
			require.Error(t, err)
			assert.Equal(t, ErrorBadData, GetCategory(err))
		})
	}
}

func TestClient_AllowsNullAndUnknownFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":null,"details":"ok","extra":[1,2]}`)
	})
	resp, err := client.Do(context.Background(), Request{Database: models.DatabaseOIG, Path: "/x"})
	require.NoError(t, err)
	assert.Nil(t, resp.Status)
	require.NotNil(t, resp.Details)
	assert.Equal(t, "ok", *resp.Details)
}

func TestClient_ValidatesDecodedDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"excluded","referenceId":"SAM-000042","score":18446744073709551617,"ratio":0.75}`)
	})
	resp, err := client.Do(context.Background(), Request{Database: models.DatabaseSAM, Path: "/api/sam/search"})
	require.NoError(t, err)
	require.NotNil(t, resp.Status)
	assert.Equal(t, "excluded", *resp.Status)
	require.NotNil(t, resp.ReferenceID)
	assert.Equal(t, "SAM-000042", *resp.ReferenceID)
}

func TestClient_DeadlineIsTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, Request{Database: models.DatabaseOIG, Path: "/slow"})
	require.Error(t, err)
	assert.Equal(t, ErrorTimeout, GetCategory(err))
}

func TestClient_ConnectionRefusedIsOutage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url)
	require.NoError(t, err)
	_, err = client.Do(context.Background(), Request{Database: models.DatabaseSAM, Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, ErrorProviderOutage, GetCategory(err))
}

func TestMedical_PostsLicenseAndState(t *testing.T) {
	var got medicalRequest
	var method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":"revoked","details":"License revoked 2019","referenceId":"FSMB-1"}`)
	})

	subject := janeDoe()
	subject.DocumentType = models.DocumentLicense
	subject.IdentificationNumber = "MD123456"

	f, err := NewMedical(client, "k").Lookup(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, medicalRequest{LicenseNumber: "MD123456", State: "NY"}, got)
	assert.Equal(t, models.StatusExcluded, f.Status)
	assert.Equal(t, "License revoked 2019", f.Details)
	assert.Equal(t, "FSMB-1", f.ReferenceID)
}

func TestOIG_QueryIncludesDOBWhenPresent(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = io.WriteString(w, `{"status":"match"}`)
	})

	f, err := NewOIG(client, "k").Lookup(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane"}, query["firstName"])
	assert.Equal(t, []string{"Doe"}, query["lastName"])
	assert.Equal(t, []string{"1980-04-12"}, query["dob"])
	assert.Equal(t, models.StatusExcluded, f.Status)

	subject := janeDoe()
	subject.DateOfBirth = ""
	_, err = NewOIG(client, "k").Lookup(context.Background(), subject)
	require.NoError(t, err)
	assert.NotContains(t, query, "dob")
}

func TestSAM_AlternativeIdentifiers(t *testing.T) {
	tests := []struct {
		doc     models.DocumentType
		key     string
		present bool
	}{
		{models.DocumentEIN, "ein", true},
		{models.DocumentDUNS, "duns", true},
		{models.DocumentSSN, "ein", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.doc), func(t *testing.T) {
			var query map[string][]string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query()
				_, _ = io.WriteString(w, `{"status":"inactive"}`)
			})
			subject := janeDoe()
			subject.DocumentType = tt.doc
			subject.IdentificationNumber = "12-3456789"

			f, err := NewSAM(client, "k").Lookup(context.Background(), subject)
			require.NoError(t, err)
			assert.Equal(t, models.StatusClear, f.Status)
			if tt.present {
				assert.Equal(t, []string{"12-3456789"}, query[tt.key])
			} else {
				assert.NotContains(t, query, "ein")
				assert.NotContains(t, query, "duns")
			}
		})
	}
}

func TestNSOPW_StateFilter(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = io.WriteString(w, `{"status":"registered"}`)
	})

	f, err := NewNSOPW(client, "k").Lookup(context.Background(), janeDoe())
	require.NoError(t, err)
	assert.Equal(t, []string{"NY"}, query["state"])
	assert.Equal(t, models.StatusExcluded, f.Status)

	subject := janeDoe()
	subject.Address = nil
	_, err = NewNSOPW(client, "k").Lookup(context.Background(), subject)
	require.NoError(t, err)
	assert.NotContains(t, query, "state")
}

func TestVocabulary_Normalize(t *testing.T) {
	word := func(s string) *string { return &s }

	status, err := oigVocabulary.normalize(models.DatabaseOIG, nil)
	require.NoError(t, err)
	assert.Empty(t, status)

	status, err = oigVocabulary.normalize(models.DatabaseOIG, word("  "))
	require.NoError(t, err)
	assert.Empty(t, status)

	status, err = oigVocabulary.normalize(models.DatabaseOIG, word("EXCLUDED"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusExcluded, status)

	status, err = medicalVocabulary.normalize(models.DatabaseMedical, word("Probation"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWarning, status)

	_, err = samVocabulary.normalize(models.DatabaseSAM, word("maybe"))
	require.Error(t, err)
	assert.Equal(t, ErrorBadData, GetCategory(err))
}

func TestParseMissingStatusPolicy(t *testing.T) {
	p, err := ParseMissingStatusPolicy(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, MissingAsWarning, p)
	assert.Equal(t, models.StatusWarning, p.Status())

	p, err = ParseMissingStatusPolicy("clear")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClear, p.Status())

	_, err = ParseMissingStatusPolicy("excluded")
	assert.Error(t, err)
}

func TestApplicable(t *testing.T) {
	subject := janeDoe()
	assert.False(t, Applicable(models.DatabaseMedical, subject))
	assert.True(t, Applicable(models.DatabaseOIG, subject))
	assert.True(t, Applicable(models.DatabaseSAM, subject))
	assert.True(t, Applicable(models.DatabaseNSOPW, subject))

	subject.DocumentType = models.DocumentLicense
	assert.True(t, Applicable(models.DatabaseMedical, subject))

	subject.Address = nil
	assert.False(t, Applicable(models.DatabaseMedical, subject), "license without a state")
	assert.False(t, Applicable(models.DatabaseID("fbi"), subject))
}
