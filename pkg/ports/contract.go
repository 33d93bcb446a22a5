package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState()
		state.AddCSV(domain.CSVFile{Name: "people.csv", Header: "id,name", Rows: []string{"1,Ada"}})
		require.NoError(t, state.CommitGoal(domain.UserGoal{KindOfGraph: "social network", Description: "Who knows whom."}))

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.NotNil(t, loaded.Goal)
		assert.Equal(t, "social network", loaded.Goal.KindOfGraph)

		f, err := loaded.CSV("people.csv")
		require.NoError(t, err)
		assert.Equal(t, "id,name", f.Header)
	})

	t.Run("Loaded state is isolated from the store", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.AddCSV(domain.CSVFile{Name: "mutation.csv"})

		reloaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		_, err = reloaded.CSV("mutation.csv")
		assert.True(t, domain.IsMissingArtifact(err), "mutating a loaded copy must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSessionState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionState())
		_ = store.Save(ctx, id2, domain.NewSessionState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
