// Package engine runs one exclusion check: it dispatches the applicable
// database lookups, collects one result per database in a fixed order and
// reduces them to the subject's overall status.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"exclusioncheck/internal/screening/metrics"
	"exclusioncheck/internal/screening/models"
	"exclusioncheck/internal/screening/providers"
	dErrors "exclusioncheck/pkg/domain-errors"
	audit "exclusioncheck/pkg/platform/audit"
	"exclusioncheck/pkg/requestcontext"
)

// CheckFailedMessage is the only text a caller sees when a check cannot be completed.
const CheckFailedMessage = "Failed to complete exclusion checks. Please try again."

// ErrCheckFailed is wrapped by every error RunCheck returns.
var ErrCheckFailed = errors.New("exclusion check failed")

const tracerName = "exclusioncheck/screening/engine"

// Engine aggregates database lookups into an OverallResult.
type Engine struct {
	strategy Strategy
	newID    IDGenerator
	now      func() time.Time
	auditor  audit.Emitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy selects how database results are produced. It is fixed for
// the lifetime of the engine.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		e.strategy = s
	}
}

// WithIDGenerator overrides the result id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.newID = g
		}
	}
}

// WithClock overrides the time source for check dates. Without it the request
// time from requestcontext is used.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithAuditor records a check_completed event for every finished check.
func WithAuditor(a audit.Emitter) Option {
	return func(e *Engine) {
		e.auditor = a
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine. A strategy is required.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		newID:  NewResultID,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	return e, nil
}

// RunCheck screens subject against every applicable database. Database
// failures show up as warning results; an error is returned only when no
// well-formed result can be assembled.
func (e *Engine) RunCheck(ctx context.Context, subject models.Subject) (*models.OverallResult, error) {
	start := time.Now()
	checkDate := e.clock(ctx)
	ctx, span := e.tracer.Start(ctx, "screening.check", trace.WithAttributes(
		attribute.String("strategy", e.strategy.Name()),
	))
	defer span.End()

	subject = subject.Normalize()
	if err := subject.CheckInvariants(); err != nil {
		return nil, e.fail(ctx, span, dErrors.CodeValidation, err)
	}

	results := e.strategy.Run(ctx, subject)
	if err := verifyResults(subject, results); err != nil {
		return nil, e.fail(ctx, span, dErrors.CodeUnavailable, err)
	}

	statuses := make([]models.Status, len(results))
	for i, r := range results {
		statuses[i] = r.Status
	}
	overall := models.Worst(statuses...)

	result := &models.OverallResult{
		ResultID:             e.newID(),
		FirstName:            subject.FirstName,
		LastName:             subject.LastName,
		DateOfBirth:          subject.DateOfBirth,
		Email:                subject.Email,
		DocumentType:         subject.DocumentType,
		IdentificationNumber: subject.IdentificationNumber,
		Address:              subject.Address,
		Status:               overall,
		Message:              SummaryMessage(overall),
		CheckDate:            checkDate,
		DatabaseResults:      results,
	}

	span.SetAttributes(
		attribute.String("result_id", result.ResultID),
		attribute.String("status", string(overall)),
	)
	e.metrics.ObserveCheck(string(overall), time.Since(start))
	e.logger.InfoContext(ctx, "exclusion check completed",
		"request_id", requestcontext.RequestID(ctx),
		"result_id", result.ResultID,
		"status", overall,
		"databases", len(results),
	)
	e.emitCompleted(ctx, result)
	return result, nil
}

// SummaryMessage is the fixed summary shown for an overall status.
func SummaryMessage(s models.Status) string {
	switch s {
	case models.StatusClear:
		return "No exclusions found across all checked databases."
	case models.StatusWarning:
		return "Potential matches found. Additional verification recommended."
	case models.StatusExcluded:
		return "Individual appears on one or more exclusion lists. Further verification required."
	default:
		panic(fmt.Sprintf("engine: unknown status %q", string(s)))
	}
}

func (e *Engine) fail(ctx context.Context, span trace.Span, code dErrors.Code, cause error) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, "check failed")
	e.logger.ErrorContext(ctx, "exclusion check failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
	return dErrors.Wrap(fmt.Errorf("%w: %w", ErrCheckFailed, cause), code, CheckFailedMessage)
}

// verifyResults checks that the strategy produced exactly one valid result
// per applicable database, in database order.
func verifyResults(subject models.Subject, results []models.DatabaseResult) error {
	var expected []models.DatabaseID
	for _, id := range models.DatabaseOrder {
		if providers.Applicable(id, subject) {
			expected = append(expected, id)
		}
	}
	if len(results) != len(expected) {
		return fmt.Errorf("expected %d database results, got %d", len(expected), len(results))
	}
	for i, r := range results {
		if r.DatabaseID != expected[i] {
			return fmt.Errorf("result %d is for %q, expected %q", i, r.DatabaseID, expected[i])
		}
		if !r.Status.IsValid() {
			return fmt.Errorf("database %s reported invalid status %q", r.DatabaseID, r.Status)
		}
	}
	return nil
}

// clock prefers an injected clock, then the request time set by the requesttime middleware.
func (e *Engine) clock(ctx context.Context) time.Time {
	if e.now != nil {
		return e.now()
	}
	return requestcontext.Now(ctx)
}

func (e *Engine) emitCompleted(ctx context.Context, result *models.OverallResult) {
	if e.auditor == nil {
		return
	}
	details := make(map[string]string, len(result.DatabaseResults))
	for _, dr := range result.DatabaseResults {
		details[string(dr.DatabaseID)] = string(dr.Status)
	}
	err := e.auditor.Emit(ctx, audit.Event{
		Category:      audit.EventCheckCompleted.Category(),
		Timestamp:     result.CheckDate,
		Action:        string(audit.EventCheckCompleted),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.Subject(ctx),
		ResultID:      result.ResultID,
		Decision:      string(result.Status),
		Details:       details,
		SubjectIDHash: HashIdentifier(result.IdentificationNumber),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", result.ResultID,
			"error", err,
		)
	}
}

// HashIdentifier returns the hex SHA-256 of an identification number, so audit
// trails can correlate checks without storing the number itself.
func HashIdentifier(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
