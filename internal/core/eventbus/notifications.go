package eventbus

import (
	"fmt"

	"github.com/colonyops/margin/internal/core/conflict"
)

// NotificationRouter maps domain events to user facing notices.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notice mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeEditRefused(func(EditRefusedPayload) {
		r.notifyf(NoticeWarning, "A comment is being edited")
	})

	r.bus.SubscribeConflictResolved(func(p ConflictResolvedPayload) {
		c := p.Conflict
		switch {
		case c.Kind == conflict.Removed:
			r.notifyf(NoticeWarning, "comment %s was removed by %s while you were editing it", c.CommentID, c.Author)
		default:
			r.notifyf(NoticeInfo, "comment %s changed by %s: %s", c.CommentID, c.Author, p.Choice)
		}
	})

	r.bus.SubscribeImportCompleted(func(p ImportCompletedPayload) {
		what := "comments"
		if p.TrackedChanges {
			what = "tracked changes"
		}
		r.notifyf(NoticeInfo, "imported %d %s", p.Comments, what)
	})
}

func (r *NotificationRouter) notifyf(level NoticeLevel, format string, args ...any) {
	r.bus.PublishNoticePublished(NoticePublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
