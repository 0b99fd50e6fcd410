// Package journal records the traffic of a margin session: every inbound
// protocol message and every command sent to the server, in order.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Direction tells inbound from outbound traffic.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Entry is one recorded message.
type Entry struct {
	ID         string
	SessionID  string
	DocumentID string
	Seq        int64
	Direction  Direction
	// Kind is the protocol message kind for inbound entries and the command
	// name for outbound ones.
	Kind      string
	CommentID string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Session summarizes the entries recorded under one session id.
type Session struct {
	ID         string
	DocumentID string
	Entries    int64
	StartedAt  time.Time
	EndedAt    time.Time
}

// Store persists journal entries.
type Store interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	Entries(ctx context.Context, sessionID string) ([]Entry, error)
	// Sessions lists recorded sessions, newest first. An empty documentID
	// lists every document.
	Sessions(ctx context.Context, documentID string) ([]Session, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Recorder appends the traffic of one session to a Store.
type Recorder struct {
	store      Store
	sessionID  string
	documentID string
	log        zerolog.Logger

	mu  sync.Mutex
	seq int64
}

// NewRecorder starts a new session for documentID.
func NewRecorder(store Store, documentID string) *Recorder {
	return &Recorder{
		store:      store,
		sessionID:  uuid.NewString(),
		documentID: documentID,
		log:        logging.Component("journal"),
	}
}

// SessionID returns the id entries are recorded under.
func (r *Recorder) SessionID() string { return r.sessionID }

// RecordInbound appends a message received from the server or script.
func (r *Recorder) RecordInbound(ctx context.Context, kind, commentID string, payload any) error {
	return r.record(ctx, Inbound, kind, commentID, payload)
}

// RecordOutbound appends a command sent to the server.
func (r *Recorder) RecordOutbound(ctx context.Context, cmd command.Command) error {
	commentID := ""
	if arg, ok := cmd.Arg("Id"); ok {
		commentID = fmt.Sprint(arg.Value)
	}
	return r.record(ctx, Outbound, cmd.Name, commentID, cmd)
}

// Subscribe records every command published on bus. Failures are logged,
// they never reach the margin.
func (r *Recorder) Subscribe(bus *eventbus.EventBus) {
	bus.SubscribeCommandSent(func(p eventbus.CommandSentPayload) {
		if err := r.RecordOutbound(context.Background(), p.Command); err != nil {
			r.log.Error().Err(err).Str("command", p.Command.Name).Msg("failed to journal command")
		}
	})
}

func (r *Recorder) record(ctx context.Context, dir Direction, kind, commentID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	_, err = r.store.Append(ctx, Entry{
		SessionID:  r.sessionID,
		DocumentID: r.documentID,
		Seq:        seq,
		Direction:  dir,
		Kind:       kind,
		CommentID:  commentID,
		Payload:    raw,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}
