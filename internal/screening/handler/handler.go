// Package handler exposes exclusion checks and result exports over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"exclusioncheck/internal/screening/export"
	"exclusioncheck/internal/screening/exportguard"
	"exclusioncheck/internal/screening/metrics"
	"exclusioncheck/internal/screening/models"
	dErrors "exclusioncheck/pkg/domain-errors"
	audit "exclusioncheck/pkg/platform/audit"
	"exclusioncheck/pkg/platform/httputil"
	"exclusioncheck/pkg/platform/sentinel"
	"exclusioncheck/pkg/requestcontext"
)

// DefaultMaxBatchSize is the most results a single export request may carry.
const DefaultMaxBatchSize = 250

// CheckService runs exclusion checks.
type CheckService interface {
	RunCheck(ctx context.Context, subject models.Subject) (*models.OverallResult, error)
}

// ExportGuard tracks the export in flight for each export session.
type ExportGuard interface {
	Acquire(ctx context.Context, key string, kind exportguard.Kind) (*exportguard.Lease, error)
	Release(ctx context.Context, lease *exportguard.Lease) error
	Status(ctx context.Context, key string) (exportguard.Kind, error)
}

// Handler serves the check and export endpoints.
type Handler struct {
	checks       CheckService
	guard        ExportGuard
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      audit.Emitter
	maxBatchSize int
	now          func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithAuditor records export events.
func WithAuditor(a audit.Emitter) Option {
	return func(h *Handler) {
		h.auditor = a
	}
}

// WithMaxBatchSize caps the number of results per export request.
func WithMaxBatchSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBatchSize = n
		}
	}
}

// WithClock overrides the time source for export timestamps and filenames.
// Without it the request time from requestcontext is used.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a new screening Handler.
func New(checks CheckService, guard ExportGuard, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		checks:       checks,
		guard:        guard,
		logger:       logger,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the screening routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/checks", h.handleRunCheck)
	r.Route("/api/exports", func(r chi.Router) {
		r.Post("/csv", h.handleExportCSV)
		r.Post("/pdf", h.handleExportPDF)
		r.Post("/print", h.handleExportPrint)
		r.Get("/status", h.handleExportStatus)
	})
}

type checkRequest models.Subject

// Validate normalizes the subject and checks the fields a check cannot run without.
func (c *checkRequest) Validate() error {
	s := models.Subject(*c).Normalize()
	*c = checkRequest(s)

	var missing []string
	if s.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if s.LastName == "" {
		missing = append(missing, "lastName")
	}
	if s.IdentificationNumber == "" {
		missing = append(missing, "identificationNumber")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

func (h *Handler) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[checkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.checks.RunCheck(ctx, models.Subject(*req))
	if err != nil {
		h.logger.ErrorContext(ctx, "exclusion check failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type exportRequest struct {
	Results []models.OverallResult `json:"results"`
}

func (e *exportRequest) Validate() error {
	if len(e.Results) == 0 {
		return dErrors.New(dErrors.CodeValidation, "results must not be empty")
	}
	for i, r := range e.Results {
		if err := r.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("results[%d]: %v", i, err))
		}
	}
	return nil
}

// rendered is a fully rendered export, written only after rendering succeeded.
type rendered struct {
	body        []byte
	contentType string
	filename    string
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, exportguard.KindCSV, func(results []models.OverallResult, now time.Time) (*rendered, error) {
		return &rendered{
			body:        []byte(export.CSV(results)),
			contentType: "text/csv; charset=utf-8",
			filename:    export.CSVFilename(now),
		}, nil
	})
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, exportguard.KindPDF, func(results []models.OverallResult, now time.Time) (*rendered, error) {
		body, err := export.PDF(results, now)
		if err != nil {
			return nil, err
		}
		return &rendered{body: body, contentType: "application/pdf", filename: export.PDFFilename(now)}, nil
	})
}

func (h *Handler) handleExportPrint(w http.ResponseWriter, r *http.Request) {
	theme, err := export.ParseTheme(r.URL.Query().Get("theme"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "theme must be light or dark"))
		return
	}
	h.serveExport(w, r, exportguard.KindPrint, func(results []models.OverallResult, now time.Time) (*rendered, error) {
		doc, err := export.PrintableReport(results, theme, now)
		if err != nil {
			return nil, err
		}
		return &rendered{body: []byte(doc), contentType: "text/html; charset=utf-8"}, nil
	})
}

type renderFunc func(results []models.OverallResult, now time.Time) (*rendered, error)

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, kind exportguard.Kind, render renderFunc) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[exportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if len(req.Results) > h.maxBatchSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
			"at most "+strconv.Itoa(h.maxBatchSize)+" results can be exported at once"))
		return
	}

	key := exportKey(ctx)
	now := h.clock(ctx)
	var out *rendered
	err := exportguard.Run(ctx, h.guard, key, kind, h.logger, func() error {
		var err error
		out, err = render(req.Results, now)
		return err
	})
	if err != nil {
		h.exportFailed(ctx, kind, len(req.Results), err)
		httputil.WriteError(w, exportError(err))
		return
	}

	h.metrics.IncrementExport(string(kind), "ok")
	h.emit(ctx, audit.EventExportRendered, kind, len(req.Results), "")

	w.Header().Set("Content-Type", out.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.body)))
	if out.filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+out.filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.body); err != nil {
		h.logger.WarnContext(ctx, "failed to write export",
			"request_id", requestID,
			"kind", kind,
			"error", err,
		)
	}
}

func (h *Handler) exportFailed(ctx context.Context, kind exportguard.Kind, count int, err error) {
	outcome := "failed"
	if exportguard.IsConflict(err) {
		outcome = "conflict"
		h.emit(ctx, audit.EventExportRejected, kind, count, "export already in progress")
		h.logger.InfoContext(ctx, "export rejected, another export in progress",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"client_ip", requestcontext.ClientIP(ctx),
			"user_agent", requestcontext.UserAgent(ctx),
		)
	} else {
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"error", err,
		)
	}
	h.metrics.IncrementExport(string(kind), outcome)
}

func exportError(err error) error {
	switch {
	case exportguard.IsConflict(err):
		return dErrors.Wrap(err, dErrors.CodeConflict, "an export is already in progress")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "export is temporarily unavailable")
	case errors.Is(err, export.ErrNoResults):
		return dErrors.Wrap(err, dErrors.CodeValidation, "results must not be empty")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export")
	}
}

type exportStatusResponse struct {
	Status exportguard.Kind `json:"status"`
}

func (h *Handler) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := h.guard.Status(ctx, exportKey(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read export status",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "export status is temporarily unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, exportStatusResponse{Status: kind})
}

func (h *Handler) clock(ctx context.Context) time.Time {
	if h.now != nil {
		return h.now()
	}
	return requestcontext.Now(ctx)
}

func (h *Handler) emit(ctx context.Context, action audit.AuditEvent, kind exportguard.Kind, count int, reason string) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.Emit(ctx, audit.Event{
		Category:  action.Category(),
		Timestamp: h.clock(ctx),
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.Subject(ctx),
		Reason:    reason,
		Details: map[string]string{
			"kind":    string(kind),
			"results": strconv.Itoa(count),
		},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"error", err,
		)
	}
}

// exportKey scopes the in-flight flag to the caller's export session.
func exportKey(ctx context.Context) string {
	if key := requestcontext.ExportKey(ctx); key != "" {
		return key
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}
