package engine

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator produces result ids.
type IDGenerator func() string

// NewResultID returns "VER-" followed by 12 upper-case hex characters.
// The first six bytes of a version 4 UUID are all random, giving 48 bits.
func NewResultID() string {
	id := uuid.New()
	return "VER-" + strings.ToUpper(hex.EncodeToString(id[:6]))
}
