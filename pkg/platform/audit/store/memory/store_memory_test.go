package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "exclusioncheck/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, action := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, audit.Event{Action: action}))
	}

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Action)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Action)
	assert.Equal(t, "c", recent[1].Action)

	store.Clear()
	all, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
