package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeKV struct{ calls int }

func (f *fakeKV) SweepExpired(context.Context) error {
	f.calls++
	return nil
}

type fakeJournal struct {
	before time.Time
	calls  int
	err    error
}

func (f *fakeJournal) Prune(_ context.Context, before time.Time) (int64, error) {
	f.calls++
	f.before = before
	return 3, f.err
}

func TestOnce(t *testing.T) {
	kv := &fakeKV{}
	j := &fakeJournal{}

	Once(context.Background(), kv, j, time.Hour)

	assert.Equal(t, 1, kv.calls)
	assert.Equal(t, 1, j.calls)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), j.before, time.Minute)
}

func TestOnce_ZeroRetentionKeepsJournal(t *testing.T) {
	j := &fakeJournal{}
	Once(context.Background(), nil, j, 0)
	assert.Equal(t, 0, j.calls)
}

func TestOnce_PruneErrorIsSwallowed(t *testing.T) {
	j := &fakeJournal{err: errors.New("locked")}
	assert.NotPanics(t, func() { Once(context.Background(), &fakeKV{}, j, time.Hour) })
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, &fakeKV{}, nil, time.Millisecond, 0)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
