package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts document_id and view_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if documentID := GetDocumentID(ctx); documentID != "" {
		e.Str("document_id", documentID)
	}

	if viewID := GetViewID(ctx); viewID != "" {
		e.Str("view_id", viewID)
	}
}
