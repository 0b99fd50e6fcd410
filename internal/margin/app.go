package margin

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/journal"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/notify"
	"github.com/colonyops/margin/internal/core/viewinfo"
	"github.com/colonyops/margin/internal/data/db"
	"github.com/colonyops/margin/internal/data/stores"
)

// App is the central entry point for margin operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Config  *config.Config
	DB      *db.DB
	Bus     *eventbus.EventBus
	KV      *stores.KVStore
	Journal *stores.JournalStore
	Notices *stores.NotifyStore
	Views   *viewinfo.Registry
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, database *db.DB, bus *eventbus.EventBus) *App {
	kvStore := stores.NewKVStore(database)
	return &App{
		Config:  cfg,
		DB:      database,
		Bus:     bus,
		KV:      kvStore,
		Journal: stores.NewJournalStore(database),
		Notices: stores.NewNotifyStore(database),
		Views:   viewinfo.New(kvStore),
	}
}

// SessionOptions adjusts one session away from the configuration.
type SessionOptions struct {
	// DocumentID names the document in the journal.
	DocumentID string
	// Kind overrides the configured document type when set.
	Kind doctype.Kind
	// User overrides the configured local user when set.
	User string
	// Transport receives outgoing commands. Nil records them only.
	Transport command.Transport
	// Presenter answers conflicts. Nil uses the configured policy.
	Presenter conflict.Presenter
	Host      Host
}

// Session is one Section bound to a journal recording.
type Session struct {
	*Section
	Recorder  *journal.Recorder
	Transport *command.Recorder
	Host      Host
}

// Open starts a session. Outgoing commands and notices are journaled under
// the session id; authors seen in earlier sessions are restored.
func (a *App) Open(ctx context.Context, so SessionOptions) (*Session, error) {
	opts, err := OptionsFromConfig(a.Config)
	if err != nil {
		return nil, err
	}

	if so.Kind != "" {
		behavior, err := doctype.For(so.Kind)
		if err != nil {
			return nil, err
		}
		opts.Behavior = behavior
	}
	if so.User != "" {
		opts.LocalUser = so.User
	}
	if so.Presenter != nil {
		opts.Presenter = so.Presenter
	}
	if so.Host == nil {
		so.Host = NewMemoryHost()
	}

	if err := a.Views.Load(ctx); err != nil {
		return nil, err
	}

	transport := command.NewRecorder(so.Transport)
	opts.Transport = transport
	opts.Host = so.Host
	opts.Bus = a.Bus
	opts.Views = a.Views

	section, err := New(opts)
	if err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}

	rec := journal.NewRecorder(a.Journal, so.DocumentID)
	rec.Subscribe(a.Bus)
	a.persistNotices(rec.SessionID(), a.Notices)

	logging.Component("app").Info().
		Str("session", rec.SessionID()).
		Str("document", so.DocumentID).
		Str("type", string(opts.Behavior.Kind())).
		Msg("session opened")

	return &Session{
		Section:   section,
		Recorder:  rec,
		Transport: transport,
		Host:      so.Host,
	}, nil
}

// persistNotices saves every notice published on the bus under sessionID.
func (a *App) persistNotices(sessionID string, store notify.Store) {
	log := logging.Component("notify")
	a.Bus.SubscribeNoticePublished(func(p eventbus.NoticePublishedPayload) {
		n := notify.Notification{
			SessionID: sessionID,
			Level:     notify.Level(p.Level),
			Message:   p.Message,
			CreatedAt: time.Now(),
		}
		if _, err := store.Save(context.Background(), n); err != nil {
			log.Error().Err(err).Msg("failed to persist notice")
		}
	})
}

// RegisterObservers wires the bus side of the app: notices for domain
// events and, at debug level, a log line per event.
func (a *App) RegisterObservers(logger zerolog.Logger) {
	eventbus.NewNotificationRouter(a.Bus).Register()
	if logger.GetLevel() <= zerolog.DebugLevel {
		eventbus.RegisterDebugLogger(a.Bus, logger)
	}
}
