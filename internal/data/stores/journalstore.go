package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/margin/internal/core/journal"
	"github.com/colonyops/margin/internal/data/db"
	"github.com/google/uuid"
)

// JournalStore implements journal.Store using SQLite.
type JournalStore struct {
	db *db.DB
}

var _ journal.Store = (*JournalStore)(nil)

// NewJournalStore creates a new SQLite-backed journal store.
func NewJournalStore(db *db.DB) *JournalStore {
	return &JournalStore{db: db}
}

// Append persists e, assigning an id when it has none.
func (s *JournalStore) Append(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	err := s.db.Queries().InsertJournalEntry(ctx, db.InsertJournalEntryParams{
		ID:         e.ID,
		SessionID:  e.SessionID,
		DocumentID: e.DocumentID,
		Seq:        e.Seq,
		Direction:  string(e.Direction),
		Kind:       e.Kind,
		CommentID:  e.CommentID,
		Payload:    e.Payload,
		CreatedAt:  e.CreatedAt.UnixNano(),
	})
	if err != nil {
		return journal.Entry{}, fmt.Errorf("insert journal entry: %w", err)
	}

	return e, nil
}

// Entries returns the entries of a session in sequence order. Returns
// ErrNotFound for an unknown session.
func (s *JournalStore) Entries(ctx context.Context, sessionID string) ([]journal.Entry, error) {
	rows, err := s.db.Queries().ListJournalEntries(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	result := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToEntry(row))
	}
	return result, nil
}

// Sessions lists recorded sessions, newest first.
func (s *JournalStore) Sessions(ctx context.Context, documentID string) ([]journal.Session, error) {
	rows, err := s.db.Queries().ListJournalSessions(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list journal sessions: %w", err)
	}

	result := make([]journal.Session, 0, len(rows))
	for _, row := range rows {
		result = append(result, journal.Session{
			ID:         row.SessionID,
			DocumentID: row.DocumentID,
			Entries:    row.Entries,
			StartedAt:  time.Unix(0, row.StartedAt),
			EndedAt:    time.Unix(0, row.EndedAt),
		})
	}
	return result, nil
}

// Prune deletes entries recorded before the cutoff and returns how many
// were removed.
func (s *JournalStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.db.Queries().DeleteJournalBefore(ctx, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return n, nil
}

func rowToEntry(row db.JournalEntry) journal.Entry {
	return journal.Entry{
		ID:         row.ID,
		SessionID:  row.SessionID,
		DocumentID: row.DocumentID,
		Seq:        row.Seq,
		Direction:  journal.Direction(row.Direction),
		Kind:       row.Kind,
		CommentID:  row.CommentID,
		Payload:    row.Payload,
		CreatedAt:  time.Unix(0, row.CreatedAt),
	}
}
