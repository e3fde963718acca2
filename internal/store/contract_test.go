package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/slot-watcher/internal/store"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		want := &domain.MonitorState{
			TargetID:    "azabu",
			Phase:       domain.PhaseOpened,
			Fingerprint: "abc123",
			Raw:         "3月 8日 ○\n3月 9日 ×",
			UpdatedAt:   now,
		}
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx, "azabu")
		require.NoError(t, err)
		assert.Equal(t, want.TargetID, got.TargetID)
		assert.Equal(t, want.Phase, got.Phase)
		assert.Equal(t, want.Fingerprint, got.Fingerprint)
		assert.Equal(t, want.Raw, got.Raw)
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
	})

	t.Run("save replaces whole record", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, &domain.MonitorState{
			TargetID: "replace", Phase: domain.PhaseOpened, Fingerprint: "one", Raw: "3月 8日 ○",
		}))
		require.NoError(t, s.Save(ctx, &domain.MonitorState{
			TargetID: "replace", Phase: domain.PhaseOpened, Fingerprint: "two",
		}))

		got, err := s.Load(ctx, "replace")
		require.NoError(t, err)
		assert.Equal(t, "two", got.Fingerprint)
		assert.Empty(t, got.Raw)
	})

	t.Run("rejects invalid state", func(t *testing.T) {
		require.Error(t, s.Save(ctx, &domain.MonitorState{TargetID: "bad", Phase: "closed"}))
		require.Error(t, s.Save(ctx, &domain.MonitorState{Phase: domain.PhaseOpened}))
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, domain.NewMonitorState("zz-last")))

		states, err := s.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(states))
		for _, st := range states {
			ids = append(ids, st.TargetID)
		}
		assert.Equal(t, []string{"azabu", "replace", "zz-last"}, ids)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "zz-last"))
		require.NoError(t, s.Delete(ctx, "zz-last"))

		_, err := s.Load(ctx, "zz-last")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}
