package eventbus_test

import (
	"testing"

	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/eventbus/testbus"
	"github.com/rs/zerolog"
)

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	// Registering with a nop logger must not panic.
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.Nop())

	tb.PublishCommentAdded(eventbus.CommentAddedPayload{ID: "1", Parent: "0"})
	tb.PublishLayoutApplied(eventbus.LayoutAppliedPayload{Placements: 3})
	tb.PublishCommentRemoved(eventbus.CommentRemovedPayload{ID: "1"})

	tb.AssertPublished(t, eventbus.EventCommentRemoved)
}
