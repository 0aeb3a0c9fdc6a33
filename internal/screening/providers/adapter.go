package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"exclusioncheck/internal/screening/metrics"
	"exclusioncheck/internal/screening/models"
	"exclusioncheck/pkg/platform/circuit"
	"exclusioncheck/pkg/requestcontext"
)

const (
	defaultTimeout = 10 * time.Second
	tracerName     = "exclusioncheck/screening/providers"
)

// Adapter wraps a Provider with the same timeout, rate limit, circuit breaker
// and failure translation for every database. Check never returns an error.
type Adapter struct {
	provider Provider
	desc     Descriptor
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *circuit.Breaker
	policy   MissingStatusPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithTimeout bounds each lookup, including the wait for the rate limiter.
func WithTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests to the database.
func WithRateLimit(perSecond float64, burst int) AdapterOption {
	return func(a *Adapter) {
		if perSecond > 0 && burst > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBreaker protects the database with a circuit breaker.
func WithBreaker(b *circuit.Breaker) AdapterOption {
	return func(a *Adapter) {
		a.breaker = b
	}
}

// WithMissingStatusPolicy decides what a response without a status means.
func WithMissingStatusPolicy(p MissingStatusPolicy) AdapterOption {
	return func(a *Adapter) {
		if p != "" {
			a.policy = p
		}
	}
}

// WithLogger sets the logger used for lookup failures.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) AdapterOption {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithClock overrides the time source used for search dates.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter wraps provider.
func NewAdapter(provider Provider, opts ...AdapterOption) (*Adapter, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	desc := provider.Descriptor()
	if desc.ID != provider.ID() {
		return nil, fmt.Errorf("descriptor %q does not match provider %q", desc.ID, provider.ID())
	}

	a := &Adapter{
		provider: provider,
		desc:     desc,
		timeout:  defaultTimeout,
		policy:   MissingAsClear,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ID returns the wrapped database.
func (a *Adapter) ID() models.DatabaseID { return a.desc.ID }

// Descriptor returns the wrapped database's metadata.
func (a *Adapter) Descriptor() Descriptor { return a.desc }

// Applies reports whether the database is screened for the subject.
func (a *Adapter) Applies(subject models.Subject) bool { return a.provider.Applies(subject) }

// Check looks the subject up and always returns a well-formed result.
// Errors, timeouts, panics and an open circuit all produce a warning carrying
// the database's manual-verification advisory.
func (a *Adapter) Check(ctx context.Context, subject models.Subject) (result models.DatabaseResult) {
	start := a.now()
	ctx, span := a.tracer.Start(ctx, "screening.lookup", trace.WithAttributes(
		attribute.String("database", string(a.desc.ID)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := NewProviderError(ErrorInternal, a.desc.ID, "lookup panicked", fmt.Errorf("%v", r))
			a.recordFailure(ctx, span, err, start)
			result = a.failure()
		}
	}()

	finding, err := a.lookup(ctx, subject)
	if err != nil {
		a.recordFailure(ctx, span, err, start)
		return a.failure()
	}

	a.recordSuccess(ctx, start)
	span.SetAttributes(attribute.String("status", string(finding.Status)))
	return a.success(finding)
}

func (a *Adapter) lookup(ctx context.Context, subject models.Subject) (*Finding, error) {
	if a.breaker != nil && !a.breaker.Allow() {
		return nil, NewProviderError(ErrorCircuitOpen, a.desc.ID, "circuit open, lookup skipped", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, NewProviderError(ErrorRateLimited, a.desc.ID, "rate limiter wait", err)
		}
	}

	finding, err := a.provider.Lookup(ctx, subject)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && GetCategory(err) != ErrorTimeout {
			return nil, NewProviderError(ErrorTimeout, a.desc.ID, "lookup timed out", err)
		}
		return nil, err
	}
	if finding == nil {
		return nil, NewProviderError(ErrorBadData, a.desc.ID, "empty finding", nil)
	}
	if finding.Status != "" && !finding.Status.IsValid() {
		return nil, NewProviderError(ErrorBadData, a.desc.ID, fmt.Sprintf("invalid status %q", finding.Status), nil)
	}
	return finding, nil
}

func (a *Adapter) success(f *Finding) models.DatabaseResult {
	status := f.Status
	if status == "" {
		status = a.policy.Status()
	}
	details := f.Details
	if details == "" {
		details = a.desc.DefaultDetails
	}
	return models.DatabaseResult{
		DatabaseID:   a.desc.ID,
		DatabaseName: a.desc.Name,
		Status:       status,
		SearchDate:   a.now(),
		Details:      details,
		SearchURL:    a.desc.SearchURL,
		ReferenceID:  f.ReferenceID,
	}
}

func (a *Adapter) failure() models.DatabaseResult {
	return a.desc.Failure(a.now())
}

func (a *Adapter) recordSuccess(ctx context.Context, start time.Time) {
	a.metrics.ObserveLookup(string(a.desc.ID), false, a.now().Sub(start))
	if a.breaker == nil {
		return
	}
	if _, change := a.breaker.RecordSuccess(); change.Closed {
		a.metrics.IncrementBreakerTransition(string(a.desc.ID), "closed")
		a.logger.InfoContext(ctx, "database circuit closed",
			"database", a.desc.ID,
			"breaker", a.breaker.Name(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (a *Adapter) recordFailure(ctx context.Context, span trace.Span, err error, start time.Time) {
	category := GetCategory(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, string(category))
	a.metrics.ObserveLookup(string(a.desc.ID), true, a.now().Sub(start))
	a.metrics.IncrementLookupFailure(string(a.desc.ID), string(category))

	a.logger.WarnContext(ctx, "database lookup failed, reporting warning",
		"database", a.desc.ID,
		"category", category,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)

	// a skipped call says nothing new about the database
	if a.breaker == nil || category == ErrorCircuitOpen {
		return
	}
	if _, change := a.breaker.RecordFailure(); change.Opened {
		a.metrics.IncrementBreakerTransition(string(a.desc.ID), "open")
		a.logger.WarnContext(ctx, "database circuit opened",
			"database", a.desc.ID,
			"breaker", a.breaker.Name(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
