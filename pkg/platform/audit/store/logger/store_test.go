package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "exclusioncheck/pkg/platform/audit"
)

func TestStore_Append(t *testing.T) {
	var buf bytes.Buffer
	store := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := store.Append(context.Background(), audit.Event{
		Category:      audit.CategoryCompliance,
		Timestamp:     time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Action:        string(audit.EventCheckCompleted),
		RequestID:     "req-1",
		ResultID:      "VER-0123456789AB",
		Decision:      "excluded",
		Details:       map[string]string{"oig": "excluded"},
		SubjectIDHash: "abc123",
	})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "audit event", record["msg"])
	assert.Equal(t, "audit", record["component"])
	assert.Equal(t, "check_completed", record["action"])
	assert.Equal(t, "compliance", record["category"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "VER-0123456789AB", record["result_id"])
	assert.Equal(t, "excluded", record["detail.oig"])
	assert.Equal(t, "abc123", record["subject_id_hash"])
	assert.NotContains(t, record, "actor_id")
}
