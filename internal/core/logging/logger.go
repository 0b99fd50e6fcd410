package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// CommentEvent attaches the comment and parent ids the margin logs with
// every thread warning.
func CommentEvent(e *zerolog.Event, commentID, parentID string) *zerolog.Event {
	e = e.Str("comment_id", commentID)
	if parentID != "" {
		e = e.Str("parent_id", parentID)
	}
	return e
}
