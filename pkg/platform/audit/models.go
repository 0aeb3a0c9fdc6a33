package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers screening outcomes that must be traceable for regulators.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine activity such as exports.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Events never carry raw subject PII: the identification number is only
// ever recorded as SubjectIDHash.
type Event struct {
	Category  EventCategory     `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	RequestID string            `json:"request_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	ResultID  string            `json:"result_id,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	// SubjectIDHash is a SHA-256 hash of the screened identification number.
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
}

type AuditEvent string

const (
	EventCheckCompleted AuditEvent = "check_completed"
	EventExportRendered AuditEvent = "export_rendered"
	EventExportRejected AuditEvent = "export_rejected"
)

// Category returns the EventCategory for this audit event.
func (e AuditEvent) Category() EventCategory {
	switch e {
	case EventCheckCompleted:
		return CategoryCompliance
	default:
		return CategoryOperations
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
