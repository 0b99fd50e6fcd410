package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds every statement the stores run.
type Queries struct {
	db DBTX
}

// New binds the queries to a connection.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx binds the queries to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// JournalEntry is one row of journal_entries.
type JournalEntry struct {
	ID         string
	SessionID  string
	DocumentID string
	Seq        int64
	Direction  string
	Kind       string
	CommentID  string
	Payload    []byte
	CreatedAt  int64
}

// KvStore is one row of kv_store.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

const insertJournalEntry = `
INSERT INTO journal_entries (id, session_id, document_id, seq, direction, kind, comment_id, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertJournalEntryParams are the columns of a new journal row.
type InsertJournalEntryParams struct {
	ID         string
	SessionID  string
	DocumentID string
	Seq        int64
	Direction  string
	Kind       string
	CommentID  string
	Payload    []byte
	CreatedAt  int64
}

func (q *Queries) InsertJournalEntry(ctx context.Context, arg InsertJournalEntryParams) error {
	_, err := q.db.ExecContext(ctx, insertJournalEntry,
		arg.ID,
		arg.SessionID,
		arg.DocumentID,
		arg.Seq,
		arg.Direction,
		arg.Kind,
		arg.CommentID,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const listJournalEntries = `
SELECT id, session_id, document_id, seq, direction, kind, comment_id, payload, created_at
FROM journal_entries
WHERE session_id = ?
ORDER BY seq
`

func (q *Queries) ListJournalEntries(ctx context.Context, sessionID string) ([]JournalEntry, error) {
	rows, err := q.db.QueryContext(ctx, listJournalEntries, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []JournalEntry
	for rows.Next() {
		var i JournalEntry
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.DocumentID,
			&i.Seq,
			&i.Direction,
			&i.Kind,
			&i.CommentID,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listJournalSessions = `
SELECT session_id, document_id, COUNT(*) AS entries, MIN(created_at) AS started_at, MAX(created_at) AS ended_at
FROM journal_entries
WHERE ? = '' OR document_id = ?
GROUP BY session_id, document_id
ORDER BY ended_at DESC
`

// ListJournalSessionsRow summarizes one recorded session.
type ListJournalSessionsRow struct {
	SessionID  string
	DocumentID string
	Entries    int64
	StartedAt  int64
	EndedAt    int64
}

func (q *Queries) ListJournalSessions(ctx context.Context, documentID string) ([]ListJournalSessionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listJournalSessions, documentID, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ListJournalSessionsRow
	for rows.Next() {
		var i ListJournalSessionsRow
		if err := rows.Scan(&i.SessionID, &i.DocumentID, &i.Entries, &i.StartedAt, &i.EndedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteJournalBefore = `DELETE FROM journal_entries WHERE created_at < ?`

func (q *Queries) DeleteJournalBefore(ctx context.Context, before int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteJournalBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const kvGet = `SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var i KvStore
	err := q.db.QueryRowContext(ctx, kvGet, key).Scan(
		&i.Key,
		&i.Value,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const kvSet = `
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
`

// KVSetParams are the columns written by KVSet.
type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvListKeys = `
SELECT key FROM kv_store
WHERE key LIKE ? ESCAPE '\' AND (expires_at IS NULL OR expires_at >= ?)
ORDER BY key
`

// KVListKeys returns the live keys that start with prefix.
func (q *Queries) KVListKeys(ctx context.Context, prefix string, now sql.NullInt64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, kvListKeys, likePrefix(prefix), now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	return items, rows.Err()
}

const kvSweepExpired = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`

func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) error {
	_, err := q.db.ExecContext(ctx, kvSweepExpired, now)
	return err
}

func likePrefix(prefix string) string {
	out := make([]rune, 0, len(prefix)+1)
	for _, r := range prefix {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out) + "%"
}

// Notification is one row of notifications.
type Notification struct {
	ID        int64
	SessionID string
	Level     string
	Message   string
	CreatedAt int64
}

const insertNotification = `
INSERT INTO notifications (session_id, level, message, created_at)
VALUES (?, ?, ?, ?)
RETURNING id
`

// InsertNotificationParams are the columns of a new notification.
type InsertNotificationParams struct {
	SessionID string
	Level     string
	Message   string
	CreatedAt int64
}

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertNotification,
		arg.SessionID,
		arg.Level,
		arg.Message,
		arg.CreatedAt,
	).Scan(&id)
	return id, err
}

const listNotifications = `
SELECT id, session_id, level, message, created_at
FROM notifications
WHERE ? = '' OR session_id = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListNotifications(ctx context.Context, sessionID string) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications, sessionID, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.SessionID, &i.Level, &i.Message, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllNotifications = `DELETE FROM notifications`

func (q *Queries) DeleteAllNotifications(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotifications)
	return err
}

const countNotifications = `SELECT COUNT(*) FROM notifications`

func (q *Queries) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNotifications).Scan(&count)
	return count, err
}
