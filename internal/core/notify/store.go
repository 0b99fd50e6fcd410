// Package notify persists the notices a margin session raised for the user,
// such as edit refusals and conflict outcomes.
package notify

import (
	"context"
	"time"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notification represents a single notice.
type Notification struct {
	ID        int64
	SessionID string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Store persists notifications to durable storage.
type Store interface {
	Save(ctx context.Context, n Notification) (int64, error)
	// List returns the notifications of a session, newest first. An empty
	// sessionID lists all of them.
	List(ctx context.Context, sessionID string) ([]Notification, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
