package margin

import (
	"context"
	"fmt"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
)

// HandleComment applies a comment acknowledgment from the server.
func (s *Section) HandleComment(ctx context.Context, p comment.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ack(ctx, p, false, true)
}

// HandleRedline applies a tracked change acknowledgment from the server.
func (s *Section) HandleRedline(ctx context.Context, p comment.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ack(ctx, p, true, true)
}

func redlineID(p comment.Payload) string {
	index := p.Index.String()
	if index == "" {
		index = p.ID.String()
	}
	return comment.ChangePrefix + index
}

func (s *Section) ack(ctx context.Context, p comment.Payload, redline, gate bool) error {
	id := p.ID.String()
	if redline {
		id = redlineID(p)
	}

	if gate {
		check := conflict.Check{
			Action:    p.Action,
			ID:        id,
			Incoming:  p,
			Editing:   s.activeEditLocked(),
			LocalUser: s.opts.LocalUser,
		}
		if s.sess.autoSaved != nil {
			check.AutoSavedID = s.sess.autoSaved.ID()
		}
		if check.MustPrompt() {
			return s.resolveConflict(ctx, check, p, redline)
		}
	}

	switch p.Action {
	case comment.ActionAdd:
		s.ackAdd(p, id, redline)
	case comment.ActionRemove:
		s.ackRemove(id)
	case comment.ActionRedlinedDeletion:
		s.ackRedlinedDeletion(id)
	case comment.ActionModify:
		s.ackModify(p, id, redline)
	case comment.ActionResolve:
		s.ackResolve(p, id, redline)
	default:
		return fmt.Errorf("comment %s: unknown action %q", id, p.Action)
	}

	return s.flushImport(ctx)
}

// flushImport asks the server for a fresh comment list once an import that
// arrived during an edit can be applied.
func (s *Section) flushImport(ctx context.Context) error {
	if !s.sess.pendingImport || s.activeEditLocked() != nil {
		return nil
	}
	s.sess.pendingImport = false
	return s.send(ctx, command.NewQuery("ViewAnnotations"))
}

// resolveConflict asks the presenter how to reconcile an incoming change
// with the open editor, then applies the change accordingly.
func (s *Section) resolveConflict(ctx context.Context, check conflict.Check, p comment.Payload, redline bool) error {
	cf := check.Conflict()
	choice, err := s.opts.Presenter.PresentConflict(ctx, cf)
	if err != nil {
		return fmt.Errorf("resolve conflict on %s: %w", cf.CommentID, err)
	}
	if !cf.Allows(choice) {
		return fmt.Errorf("resolve conflict on %s: %s is not an answer to a %s conflict", cf.CommentID, choice, cf.Kind)
	}

	logging.CommentEvent(s.log.Info(), cf.CommentID, "").
		Str("kind", cf.Kind.String()).
		Str("choice", choice.String()).
		Msg("conflict resolved")
	s.opts.Bus.PublishConflictResolved(eventbus.ConflictResolvedPayload{Conflict: cf, Choice: choice})

	if choice != conflict.Update {
		s.clearAutoSave()
		s.cancelEditLocked(check.Editing)
	}
	return s.ack(ctx, p, redline, false)
}

func (s *Section) normalize(p comment.Payload) comment.Data {
	d := comment.Normalize(p, comment.NormalizeOptions{
		PartYOffset: s.partYOffset(),
		CellRect:    s.opts.CellRect,
	})
	s.opts.Views.Decorate(&d)
	return d
}

func (s *Section) normalizeRedline(p comment.Payload) (comment.Data, bool) {
	d, err := comment.NormalizeRedline(p)
	if err != nil {
		s.log.Warn().Err(err).Str("index", p.Index.String()).Msg("dropping tracked change")
		return d, false
	}
	s.opts.Views.Decorate(&d)
	return d, true
}

func (s *Section) ackAdd(p comment.Payload, id string, redline bool) {
	if redline {
		d, ok := s.normalizeRedline(p)
		if !ok {
			return
		}
		c := s.add(comment.New(d))
		if s.kind() == doctype.Spreadsheet {
			c.Hidden = true
		}
		s.requestLayout()
		return
	}

	if existing := s.list.Get(id); existing != nil {
		if status, ok := p.LayoutStatus.Int(); ok {
			existing.Data.LayoutStatus = comment.LayoutStatus(status)
			existing.Data.HasLayoutStatus = true
			s.requestLayout()
		}
		return
	}

	c := s.add(comment.New(s.normalize(p)))
	if s.kind() == doctype.Spreadsheet {
		c.Hidden = true
	} else {
		s.showHide(c)
	}
	s.adoptAutoSaved(c)

	if sel := s.sel.Selected(); sel != nil && !sel.Editing {
		s.opts.Host.FocusDocument()
	}
	s.requestLayout()
}

// adoptAutoSaved moves the open editor onto c when c is the server copy of
// an autosaved draft or reply.
func (s *Section) adoptAutoSaved(c *comment.Comment) {
	saved := s.sess.autoSaved
	if saved == nil || s.opts.LocalUser == "" || c.Data.Author != s.opts.LocalUser {
		return
	}
	reply := saved.Reply != ""
	if reply && c.Data.Parent != saved.ID() {
		return
	}

	if s.sess.needFocus != nil {
		s.sess.needFocus = c
	}
	c.Hidden = false

	draft := c.Data.Text
	switch {
	case saved.IsNew():
		draft = saved.Draft
	case reply:
		draft = saved.Reply
		saved.Reply = ""
	}
	s.beginEdit(c, draft)
	c.AutoSaved = true
	c.Unedited = c.Data.Text
	c.UneditedHTML = c.Data.HTML

	if saved.IsNew() {
		s.removeItem(comment.NewID)
	}
	if saved.IsNew() || reply {
		s.selectLocked(c, true)
	}
	s.sess.autoSaved = nil
	s.sess.wasAutoAdded = true
}

func (s *Section) ackRemove(id string) {
	c := s.list.Get(id)
	if c == nil {
		return
	}
	if s.sel.Selected() == c {
		s.unselectLocked()
	}
	if s.sess.autoSaved == c {
		s.clearAutoSave()
	}
	s.removeItem(id)
	s.requestLayout()
}

// ackRedlinedDeletion handles a comment whose anchor text was deleted
// with change tracking on. A comment that was itself only inserted under
// tracking disappears entirely.
func (s *Section) ackRedlinedDeletion(id string) {
	c := s.list.Get(id)
	if c == nil {
		return
	}
	if c.Data.HasLayoutStatus && c.Data.LayoutStatus == comment.StatusInserted {
		s.ackRemove(id)
		return
	}

	c.Data.LayoutStatus = comment.StatusDeleted
	c.Data.HasLayoutStatus = true
	s.opts.Bus.PublishCommentModified(eventbus.CommentModifiedPayload{ID: id, Action: comment.ActionRedlinedDeletion})
	s.requestLayout()
}

// applyData stores d on c. A parent change moves c in the thread tree; a
// comment still waiting for a parent keeps waiting unless the server
// names another one.
func (s *Section) applyData(c *comment.Comment, d comment.Data) {
	prevParent, pending := c.Parent, c.PendingParent
	c.SetData(d)

	if d.Parent == prevParent || (pending != "" && d.Parent == pending) {
		c.Parent, c.PendingParent = prevParent, pending
		return
	}

	c.Parent = prevParent
	s.list.Reparent(c, d.Parent)
	if d.Parent != comment.RootParent && !s.list.Contains(d.Parent) {
		c.PendingParent = d.Parent
		logging.CommentEvent(s.log.Warn(), c.ID(), d.Parent).Msg("new parent not found, treating as root until it arrives")
	}
}

func (s *Section) ackModify(p comment.Payload, id string, redline bool) {
	c := s.list.Get(id)
	if c == nil {
		return
	}

	var d comment.Data
	if redline {
		var ok bool
		if d, ok = s.normalizeRedline(p); !ok {
			return
		}
	} else {
		d = s.normalize(p)
	}

	s.applyData(c, d)
	s.opts.Behavior.BuildThreads(s.list)
	s.opts.Bus.PublishCommentModified(eventbus.CommentModifiedPayload{ID: id, Action: comment.ActionModify})

	if saved := s.sess.autoSaved; saved != nil && saved == c {
		if !c.Editing {
			s.beginEdit(c, c.Data.Text)
		}
		if s.engine.ShouldCollapse(s.viewport, s.opts.Mobile) {
			c.Collapsed = true
		}
	}
	s.requestLayout()
}

func (s *Section) ackResolve(p comment.Payload, id string, redline bool) {
	c := s.list.Get(id)
	if c == nil {
		return
	}

	var d comment.Data
	if redline {
		var ok bool
		if d, ok = s.normalizeRedline(p); !ok {
			return
		}
	} else {
		d = s.normalize(p)
	}

	s.applyData(c, d)
	s.showHide(c)
	s.opts.Bus.PublishCommentModified(eventbus.CommentModifiedPayload{ID: id, Action: comment.ActionResolve})
	s.requestLayout()
}

// showHide sets the Hidden flag of c from the resolved filter or, on
// slides, the selected part.
func (s *Section) showHide(c *comment.Comment) {
	switch s.kind() {
	case doctype.Text:
		if s.sel.ShowResolved() {
			c.Hidden = false
			return
		}
		if c.IsResolved() {
			if s.sel.Selected() == c {
				s.unselectLocked()
			}
			c.Hidden = true
			return
		}
		c.Hidden = false
	case doctype.Presentation, doctype.Drawing:
		c.Hidden = !s.opts.FileBasedView && c.Data.Part >= 0 && c.Data.Part != s.selectedPart
	}
}

func (s *Section) showHideAll() {
	for i := 0; i < s.list.Len(); i++ {
		s.showHide(s.list.At(i))
	}
}
