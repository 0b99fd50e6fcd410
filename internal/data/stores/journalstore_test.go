package stores

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/colonyops/margin/internal/core/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalStore(t *testing.T) {
	ctx := context.Background()

	entry := func(session, doc string, seq int64, at time.Time) journal.Entry {
		return journal.Entry{
			SessionID:  session,
			DocumentID: doc,
			Seq:        seq,
			Direction:  journal.Inbound,
			Kind:       "comment",
			CommentID:  "1",
			Payload:    json.RawMessage(`{"action":"Add"}`),
			CreatedAt:  at,
		}
	}

	t.Run("append assigns id and entries come back in order", func(t *testing.T) {
		store := NewJournalStore(openTestDB(t))
		now := time.Now()

		second, err := store.Append(ctx, entry("s1", "doc.odt", 2, now))
		require.NoError(t, err)
		assert.NotEmpty(t, second.ID)

		_, err = store.Append(ctx, entry("s1", "doc.odt", 1, now))
		require.NoError(t, err)

		got, err := store.Entries(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].Seq)
		assert.Equal(t, int64(2), got[1].Seq)
		assert.Equal(t, second.ID, got[1].ID)
		assert.JSONEq(t, `{"action":"Add"}`, string(got[0].Payload))
		assert.Equal(t, journal.Inbound, got[0].Direction)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := NewJournalStore(openTestDB(t))

		_, err := store.Entries(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("sessions newest first and filtered by document", func(t *testing.T) {
		store := NewJournalStore(openTestDB(t))
		base := time.Now()

		for i, e := range []journal.Entry{
			entry("old", "a.odt", 1, base),
			entry("old", "a.odt", 2, base.Add(time.Second)),
			entry("new", "a.odt", 1, base.Add(time.Minute)),
			entry("other", "b.ods", 1, base.Add(2*time.Minute)),
		} {
			_, err := store.Append(ctx, e)
			require.NoError(t, err, "entry %d", i)
		}

		all, err := store.Sessions(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "other", all[0].ID)

		docA, err := store.Sessions(ctx, "a.odt")
		require.NoError(t, err)
		require.Len(t, docA, 2)
		assert.Equal(t, "new", docA[0].ID)
		assert.Equal(t, "old", docA[1].ID)
		assert.Equal(t, int64(2), docA[1].Entries)
		assert.True(t, docA[1].EndedAt.After(docA[1].StartedAt))
	})

	t.Run("prune removes older entries", func(t *testing.T) {
		store := NewJournalStore(openTestDB(t))
		now := time.Now()

		_, err := store.Append(ctx, entry("s", "d", 1, now.Add(-48*time.Hour)))
		require.NoError(t, err)
		_, err = store.Append(ctx, entry("s", "d", 2, now))
		require.NoError(t, err)

		n, err := store.Prune(ctx, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := store.Entries(ctx, "s")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].Seq)
	})
}
