// Package logger writes audit events to the process log. It is the audit sink
// when no broker is configured.
package logger

import (
	"context"
	"log/slog"

	audit "exclusioncheck/pkg/platform/audit"
)

// Store logs each audit event as one structured record.
type Store struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger.With("component", "audit")}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	attrs := []any{
		"action", event.Action,
		"category", event.Category,
		"timestamp", event.Timestamp,
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	if event.ActorID != "" {
		attrs = append(attrs, "actor_id", event.ActorID)
	}
	if event.ResultID != "" {
		attrs = append(attrs, "result_id", event.ResultID)
	}
	if event.Decision != "" {
		attrs = append(attrs, "decision", event.Decision)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	if event.SubjectIDHash != "" {
		attrs = append(attrs, "subject_id_hash", event.SubjectIDHash)
	}
	for k, v := range event.Details {
		attrs = append(attrs, slog.String("detail."+k, v))
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)
	return nil
}
