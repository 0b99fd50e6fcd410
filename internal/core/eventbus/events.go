// Package eventbus provides a typed publish/subscribe event bus that carries
// margin notifications to observers such as the journal and the CLI.
package eventbus

import (
	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/conflict"
)

// Events defines all event types and their payload structs.
var Events = map[string]any{
	// Keep list sorted A-Z
	"command.sent":      CommandSentPayload{},
	"comment.added":     CommentAddedPayload{},
	"comment.modified":  CommentModifiedPayload{},
	"comment.removed":   CommentRemovedPayload{},
	"comment.selected":  CommentSelectedPayload{},
	"conflict.resolved": ConflictResolvedPayload{},
	"edit.refused":      EditRefusedPayload{},
	"import.completed":  ImportCompletedPayload{},
	"layout.applied":    LayoutAppliedPayload{},
	"notice.published":  NoticePublishedPayload{},
}

// CommentAddedPayload is emitted when a comment enters the list.
type CommentAddedPayload struct {
	ID            string
	Parent        string
	TrackedChange bool
}

// CommentModifiedPayload is emitted when a comment's server data changes.
type CommentModifiedPayload struct {
	ID     string
	Action comment.Action
}

// CommentRemovedPayload is emitted when a comment leaves the list.
type CommentRemovedPayload struct {
	ID string
}

// CommentSelectedPayload is emitted when the selected thread changes.
// Current is empty after an unselect.
type CommentSelectedPayload struct {
	Previous string
	Current  string
}

// CommandSentPayload is emitted after a command was handed to the transport.
type CommandSentPayload struct {
	Command command.Command
}

// ConflictResolvedPayload is emitted once the user answered a conflict.
type ConflictResolvedPayload struct {
	Conflict conflict.Conflict
	Choice   conflict.Choice
}

// EditRefusedPayload is emitted when a second edit is attempted while one is
// open.
type EditRefusedPayload struct {
	ActiveID    string
	RequestedID string
}

// ImportCompletedPayload is emitted after a full comment or change import.
type ImportCompletedPayload struct {
	Comments       int
	TrackedChanges bool
}

// LayoutAppliedPayload is emitted after a layout pass was applied.
type LayoutAppliedPayload struct {
	Placements int
	ViewHeight int
	Collapsed  bool
}

// NoticeLevel grades a user facing notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// NoticePublishedPayload is a short message meant for the user.
type NoticePublishedPayload struct {
	Level   NoticeLevel
	Message string
}
