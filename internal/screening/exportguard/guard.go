// Package exportguard tracks which export, if any, is in flight for an export
// session so that one session never renders two exports at once.
package exportguard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"exclusioncheck/pkg/platform/sentinel"
)

// Kind is the export currently in flight for a session.
type Kind string

const (
	KindIdle  Kind = "idle"
	KindCSV   Kind = "csv"
	KindPDF   Kind = "pdf"
	KindPrint Kind = "print"
)

// IsValid reports whether k names an export (idle is not one).
func (k Kind) IsValid() bool {
	switch k {
	case KindCSV, KindPDF, KindPrint:
		return true
	default:
		return false
	}
}

// DefaultTTL bounds how long a lease survives a crashed holder.
const DefaultTTL = 2 * time.Minute

// Lease is proof that the holder owns a session's in-flight slot.
type Lease struct {
	Key   string
	Kind  Kind
	token string
}

// Guard is the in-flight flag store. Acquire fails with an error wrapping
// sentinel.ErrConflict while another export holds the session.
type Guard interface {
	Acquire(ctx context.Context, key string, kind Kind) (*Lease, error)
	Release(ctx context.Context, lease *Lease) error
	Status(ctx context.Context, key string) (Kind, error)
}

// Run holds the session's slot for kind while fn executes. The slot is
// released whether fn succeeds, fails or panics.
func Run(ctx context.Context, g Guard, key string, kind Kind, logger *slog.Logger, fn func() error) error {
	lease, err := g.Acquire(ctx, key, kind)
	if err != nil {
		return err
	}
	defer func() {
		// release even if the request was canceled mid-render
		if err := g.Release(context.WithoutCancel(ctx), lease); err != nil && logger != nil {
			logger.WarnContext(ctx, "failed to release export guard",
				"kind", kind,
				"error", err,
			)
		}
	}()
	return fn()
}

// IsConflict reports whether err means another export is in flight.
func IsConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict)
}

func conflict(key string, current Kind) error {
	if !current.IsValid() {
		return fmt.Errorf("%w: another export already in progress for session %s", sentinel.ErrConflict, key)
	}
	return fmt.Errorf("%w: %s export already in progress for session %s", sentinel.ErrConflict, current, key)
}

func newToken() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
