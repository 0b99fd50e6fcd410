package eventbus

import (
	"context"
	"sync"
)

// Event names a bus event.
type Event string

const (
	EventCommandSent      Event = "command.sent"
	EventCommentAdded     Event = "comment.added"
	EventCommentModified  Event = "comment.modified"
	EventCommentRemoved   Event = "comment.removed"
	EventCommentSelected  Event = "comment.selected"
	EventConflictResolved Event = "conflict.resolved"
	EventEditRefused      Event = "edit.refused"
	EventImportCompleted  Event = "import.completed"
	EventLayoutApplied    Event = "layout.applied"
	EventNoticePublished  Event = "notice.published"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches events to subscribers on a single goroutine, in the
// order they were published.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size. Publishing to a full buffer
// drops the event.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled. Events already queued
// when ctx is cancelled are still delivered before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			bus.drain()
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) drain() {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		default:
			return
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func subscribe[T any](bus *EventBus, event Event, fn func(T)) {
	bus.subscribe(event, func(p any) {
		if v, ok := p.(T); ok {
			fn(v)
		}
	})
}

// PublishCommandSent publishes EventCommandSent.
func (bus *EventBus) PublishCommandSent(p CommandSentPayload) { bus.send(EventCommandSent, p) }

// SubscribeCommandSent subscribes to EventCommandSent.
func (bus *EventBus) SubscribeCommandSent(fn func(CommandSentPayload)) {
	subscribe(bus, EventCommandSent, fn)
}

// PublishCommentAdded publishes EventCommentAdded.
func (bus *EventBus) PublishCommentAdded(p CommentAddedPayload) { bus.send(EventCommentAdded, p) }

// SubscribeCommentAdded subscribes to EventCommentAdded.
func (bus *EventBus) SubscribeCommentAdded(fn func(CommentAddedPayload)) {
	subscribe(bus, EventCommentAdded, fn)
}

// PublishCommentModified publishes EventCommentModified.
func (bus *EventBus) PublishCommentModified(p CommentModifiedPayload) {
	bus.send(EventCommentModified, p)
}

// SubscribeCommentModified subscribes to EventCommentModified.
func (bus *EventBus) SubscribeCommentModified(fn func(CommentModifiedPayload)) {
	subscribe(bus, EventCommentModified, fn)
}

// PublishCommentRemoved publishes EventCommentRemoved.
func (bus *EventBus) PublishCommentRemoved(p CommentRemovedPayload) {
	bus.send(EventCommentRemoved, p)
}

// SubscribeCommentRemoved subscribes to EventCommentRemoved.
func (bus *EventBus) SubscribeCommentRemoved(fn func(CommentRemovedPayload)) {
	subscribe(bus, EventCommentRemoved, fn)
}

// PublishCommentSelected publishes EventCommentSelected.
func (bus *EventBus) PublishCommentSelected(p CommentSelectedPayload) {
	bus.send(EventCommentSelected, p)
}

// SubscribeCommentSelected subscribes to EventCommentSelected.
func (bus *EventBus) SubscribeCommentSelected(fn func(CommentSelectedPayload)) {
	subscribe(bus, EventCommentSelected, fn)
}

// PublishConflictResolved publishes EventConflictResolved.
func (bus *EventBus) PublishConflictResolved(p ConflictResolvedPayload) {
	bus.send(EventConflictResolved, p)
}

// SubscribeConflictResolved subscribes to EventConflictResolved.
func (bus *EventBus) SubscribeConflictResolved(fn func(ConflictResolvedPayload)) {
	subscribe(bus, EventConflictResolved, fn)
}

// PublishEditRefused publishes EventEditRefused.
func (bus *EventBus) PublishEditRefused(p EditRefusedPayload) { bus.send(EventEditRefused, p) }

// SubscribeEditRefused subscribes to EventEditRefused.
func (bus *EventBus) SubscribeEditRefused(fn func(EditRefusedPayload)) {
	subscribe(bus, EventEditRefused, fn)
}

// PublishImportCompleted publishes EventImportCompleted.
func (bus *EventBus) PublishImportCompleted(p ImportCompletedPayload) {
	bus.send(EventImportCompleted, p)
}

// SubscribeImportCompleted subscribes to EventImportCompleted.
func (bus *EventBus) SubscribeImportCompleted(fn func(ImportCompletedPayload)) {
	subscribe(bus, EventImportCompleted, fn)
}

// PublishLayoutApplied publishes EventLayoutApplied.
func (bus *EventBus) PublishLayoutApplied(p LayoutAppliedPayload) {
	bus.send(EventLayoutApplied, p)
}

// SubscribeLayoutApplied subscribes to EventLayoutApplied.
func (bus *EventBus) SubscribeLayoutApplied(fn func(LayoutAppliedPayload)) {
	subscribe(bus, EventLayoutApplied, fn)
}

// PublishNoticePublished publishes EventNoticePublished.
func (bus *EventBus) PublishNoticePublished(p NoticePublishedPayload) {
	bus.send(EventNoticePublished, p)
}

// SubscribeNoticePublished subscribes to EventNoticePublished.
func (bus *EventBus) SubscribeNoticePublished(fn func(NoticePublishedPayload)) {
	subscribe(bus, EventNoticePublished, fn)
}
