package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/session"
	"github.com/abhisek/persona/internal/store"
)

func TestEngine_SQLiteStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "persona.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	bank, err := scenario.DefaultBank()
	require.NoError(t, err)

	sessions := st.SessionRepo()
	events := st.EventRepo()
	e, err := New(DefaultConfig(), bank, sessions,
		WithEventRecorder(events),
		WithClock(func() time.Time { return t0 }),
		WithIDGenerator(func() string { return "sql-1" }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	s, err := e.Start(ctx, StartRequest{OwnerUserID: "u1"})
	require.NoError(t, err)

	step, n := runToCompletion(t, e, s.ID)
	assert.Equal(t, 14, n)
	require.NotNil(t, step.Profile)

	profile, err := e.Results(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, step.Profile, profile)

	list, err := sessions.List(ctx, store.ListOpts{Status: string(session.StatusCompleted)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sql-1", list[0].ID)
	assert.Equal(t, "u1", list[0].OwnerUserID)
	assert.Equal(t, 14, list[0].TotalAdministered)
	assert.True(t, list[0].StartedAt.Equal(t0))

	responses, err := events.QueryResponseEvents(ctx, s.ID, store.QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, responses, 14)

	lifecycle, err := events.QueryLifecycleEvents(ctx, s.ID, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, lifecycle, 2)
	assert.Equal(t, EventStarted, lifecycle[0].Event)
	assert.Equal(t, EventCompleted, lifecycle[1].Event)
	assert.Greater(t, lifecycle[1].Sequence, responses[len(responses)-1].Sequence)
}
