package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exclusioncheck/internal/screening/metrics"
	"exclusioncheck/internal/screening/models"
	"exclusioncheck/pkg/platform/circuit"
)

// stubProvider answers lookups with a canned function.
type stubProvider struct {
	id     models.DatabaseID
	lookup func(ctx context.Context) (*Finding, error)
	calls  int
}

func (s *stubProvider) ID() models.DatabaseID { return s.id }

func (s *stubProvider) Descriptor() Descriptor { return descriptors[s.id] }

func (s *stubProvider) Applies(subject models.Subject) bool { return Applicable(s.id, subject) }

func (s *stubProvider) Lookup(ctx context.Context, _ models.Subject) (*Finding, error) {
	s.calls++
	return s.lookup(ctx)
}

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestAdapter(t *testing.T, p Provider, opts ...AdapterOption) *Adapter {
	t.Helper()
	a, err := NewAdapter(p, append([]AdapterOption{WithClock(fixedClock())}, opts...)...)
	require.NoError(t, err)
	return a
}

func assertSyntheticFailure(t *testing.T, id models.DatabaseID, result models.DatabaseResult) {
	t.Helper()
	desc := descriptors[id]
	assert.Equal(t, id, result.DatabaseID)
	assert.Equal(t, desc.Name, result.DatabaseName)
	assert.Equal(t, models.StatusWarning, result.Status)
	assert.Equal(t, desc.FailureDetails, result.Details)
	assert.NotEmpty(t, result.Details)
	assert.Empty(t, result.ReferenceID)
	assert.Equal(t, desc.SearchURL, result.SearchURL)
	assert.Equal(t, fixedClock()(), result.SearchDate)
}

func TestNewAdapter_RequiresProvider(t *testing.T) {
	_, err := NewAdapter(nil)
	assert.Error(t, err)
}

func TestAdapter_Success(t *testing.T) {
	p := &stubProvider{id: models.DatabaseOIG, lookup: func(context.Context) (*Finding, error) {
		return &Finding{Status: models.StatusExcluded, Details: "Excluded 2021 under 1128(a)(1)", ReferenceID: "OIG-42"}, nil
	}}
	result := newTestAdapter(t, p).Check(context.Background(), janeDoe())

	assert.Equal(t, models.StatusExcluded, result.Status)
	assert.Equal(t, "Excluded 2021 under 1128(a)(1)", result.Details)
	assert.Equal(t, "OIG-42", result.ReferenceID)
	assert.Equal(t, "OIG Exclusion List", result.DatabaseName)
	assert.Equal(t, "https://oig.hhs.gov/exclusions/index.asp", result.SearchURL)
}

func TestAdapter_DefaultDetailsWhenOmitted(t *testing.T) {
	p := &stubProvider{id: models.DatabaseSAM, lookup: func(context.Context) (*Finding, error) {
		return &Finding{Status: models.StatusClear}, nil
	}}
	result := newTestAdapter(t, p).Check(context.Background(), janeDoe())
	assert.Equal(t, "SAM exclusions database check completed.", result.Details)
}

func TestAdapter_MissingStatusPolicy(t *testing.T) {
	silent := func(context.Context) (*Finding, error) { return &Finding{}, nil }

	result := newTestAdapter(t, &stubProvider{id: models.DatabaseNSOPW, lookup: silent}).
		Check(context.Background(), janeDoe())
	assert.Equal(t, models.StatusClear, result.Status)

	result = newTestAdapter(t, &stubProvider{id: models.DatabaseNSOPW, lookup: silent}, WithMissingStatusPolicy(MissingAsWarning)).
		Check(context.Background(), janeDoe())
	assert.Equal(t, models.StatusWarning, result.Status)
	assert.Equal(t, descriptors[models.DatabaseNSOPW].DefaultDetails, result.Details)
}

func TestAdapter_FailuresBecomeWarnings(t *testing.T) {
	tests := []struct {
		name   string
		lookup func(ctx context.Context) (*Finding, error)
	}{
		{"provider error", func(context.Context) (*Finding, error) {
			return nil, NewProviderError(ErrorProviderOutage, models.DatabaseOIG, "down", nil)
		}},
		{"plain error", func(context.Context) (*Finding, error) {
			return nil, errors.New("boom")
		}},
		{"nil finding", func(context.Context) (*Finding, error) {
			return nil, nil
		}},
		{"status outside the closed set", func(context.Context) (*Finding, error) {
			return &Finding{Status: "pending", ReferenceID: "OIG-1"}, nil
		}},
		{"panic", func(context.Context) (*Finding, error) {
			panic("nil map write")
		}},
		{"timeout", func(ctx context.Context) (*Finding, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{id: models.DatabaseOIG, lookup: tt.lookup}
			a := newTestAdapter(t, p, WithTimeout(20*time.Millisecond))

			var result models.DatabaseResult
			require.NotPanics(t, func() { result = a.Check(context.Background(), janeDoe()) })
			assertSyntheticFailure(t, models.DatabaseOIG, result)
		})
	}
}

func TestAdapter_DetachedContextSurvivesCallerCancel(t *testing.T) {
	p := &stubProvider{id: models.DatabaseSAM, lookup: func(ctx context.Context) (*Finding, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Finding{Status: models.StatusClear}, nil
	}}
	a := newTestAdapter(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := a.Check(context.WithoutCancel(ctx), janeDoe())
	assert.Equal(t, models.StatusClear, result.Status)
}

func TestAdapter_CircuitOpensAndSkipsLookups(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	breaker := circuit.New("sam", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	p := &stubProvider{id: models.DatabaseSAM, lookup: func(context.Context) (*Finding, error) {
		return nil, NewProviderError(ErrorProviderOutage, models.DatabaseSAM, "down", nil)
	}}
	a := newTestAdapter(t, p, WithBreaker(breaker), WithMetrics(m))

	for range 2 {
		assertSyntheticFailure(t, models.DatabaseSAM, a.Check(context.Background(), janeDoe()))
	}
	require.True(t, breaker.IsOpen())
	assert.Equal(t, 2, p.calls)

	assertSyntheticFailure(t, models.DatabaseSAM, a.Check(context.Background(), janeDoe()))
	assert.Equal(t, 2, p.calls, "open circuit must skip the provider")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("sam", "open")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupFailures.WithLabelValues("sam", string(ErrorProviderOutage))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupFailures.WithLabelValues("sam", string(ErrorCircuitOpen))))
}

func TestAdapter_BreakerTransitionsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	breaker := circuit.New("oig-registry", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	p := &stubProvider{id: models.DatabaseOIG, lookup: func(context.Context) (*Finding, error) {
		return nil, NewProviderError(ErrorTimeout, models.DatabaseOIG, "slow", nil)
	}}
	a := newTestAdapter(t, p, WithBreaker(breaker), WithLogger(logger))

	a.Check(context.Background(), janeDoe())
	require.True(t, breaker.IsOpen())

	var opened map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		if record["msg"] == "database circuit opened" {
			opened = record
		}
	}
	require.NotNil(t, opened, "expected a circuit-opened log line")
	assert.Equal(t, "oig", opened["database"])
	assert.Equal(t, "oig-registry", opened["breaker"])
}

func TestAdapter_RateLimitWaitCountsAgainstTimeout(t *testing.T) {
	p := &stubProvider{id: models.DatabaseNSOPW, lookup: func(context.Context) (*Finding, error) {
		return &Finding{Status: models.StatusClear}, nil
	}}
	// one token per hour; the second call cannot get one within the timeout
	a := newTestAdapter(t, p, WithRateLimit(1.0/3600, 1), WithTimeout(20*time.Millisecond))

	assert.Equal(t, models.StatusClear, a.Check(context.Background(), janeDoe()).Status)
	assertSyntheticFailure(t, models.DatabaseNSOPW, a.Check(context.Background(), janeDoe()))
	assert.Equal(t, 1, p.calls)
}
