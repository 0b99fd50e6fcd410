package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memStore) Append(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Entry{}, m.err
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memStore) Entries(context.Context, string) ([]Entry, error)  { return m.snapshot(), nil }
func (m *memStore) Sessions(context.Context, string) ([]Session, error) { return nil, nil }
func (m *memStore) Prune(context.Context, time.Time) (int64, error)    { return 0, nil }

func (m *memStore) snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

func TestRecorder_Sequence(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	rec := NewRecorder(store, "doc.odt")
	require.NotEmpty(t, rec.SessionID())

	require.NoError(t, rec.RecordInbound(ctx, "comment", "7", map[string]string{"action": "Add"}))

	cmd := command.New("DeleteComment").With("Id", command.String("7"))
	require.NoError(t, rec.RecordOutbound(ctx, cmd))

	got := store.snapshot()
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, Inbound, got[0].Direction)
	assert.Equal(t, "comment", got[0].Kind)
	assert.JSONEq(t, `{"action":"Add"}`, string(got[0].Payload))

	assert.Equal(t, int64(2), got[1].Seq)
	assert.Equal(t, Outbound, got[1].Direction)
	assert.Equal(t, "DeleteComment", got[1].Kind)
	assert.Equal(t, "7", got[1].CommentID)

	for _, e := range got {
		assert.Equal(t, rec.SessionID(), e.SessionID)
		assert.Equal(t, "doc.odt", e.DocumentID)
	}
}

func TestRecorder_StoreError(t *testing.T) {
	rec := NewRecorder(&memStore{err: errors.New("disk full")}, "doc")

	err := rec.RecordInbound(context.Background(), "comment", "1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecorder_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.New(8)
	go bus.Start(ctx)

	store := &memStore{}
	rec := NewRecorder(store, "doc")
	rec.Subscribe(bus)

	bus.PublishCommandSent(eventbus.CommandSentPayload{Command: command.New("ResolveComment").With("Id", command.String("3"))})

	require.Eventually(t, func() bool { return len(store.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "3", store.snapshot()[0].CommentID)
}
