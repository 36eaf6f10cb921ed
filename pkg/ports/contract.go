package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/coldline/pkg/domain"
)

// RunRecordStoreContract runs a suite of tests to verify that a
// RecordStore implementation adheres to the defined interface contract.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := domain.NewCallRecord(sessionID, "jack", "+15551230001")
		rec.State.MarkInterested(map[string]string{"party_size": "4"})
		rec.State.RecordObjection("too expensive")

		err := store.Save(ctx, sessionID, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Persona, loaded.Persona)
		assert.Equal(t, rec.Target, loaded.Target)
		assert.True(t, loaded.State.Interested)
		assert.Equal(t, "4", loaded.State.Qualification["party_size"])
		assert.Equal(t, []string{"too expensive"}, loaded.State.Objections)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State.RecordObjection("mutated copy")

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"too expensive"}, again.State.Objections,
			"mutating a loaded record must not leak back into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewCallRecord(sessionID, "jack", "+15551230001"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewCallRecord(id1, "jack", "+15551230001"))
		_ = store.Save(ctx, id2, domain.NewCallRecord(id2, "sloane", "+15551230002"))

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
