package margin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/logging"
)

func (s *Section) commandFor(op doctype.Op) (command.Command, error) {
	name, ok := s.opts.Behavior.CommandName(op)
	if !ok {
		return command.Command{}, fmt.Errorf("%w: %s on %s", ErrUnsupported, op, s.kind())
	}
	return command.New(name), nil
}

func (s *Section) withBody(cmd command.Command, text, html string) command.Command {
	if s.opts.Behavior.PrefersHTML() && html != "" {
		return cmd.With("Html", command.String(html))
	}
	return cmd.With("Text", command.String(text))
}

// finish ends a user action: the selection is dropped and focus returns to
// the document.
func (s *Section) finish() {
	s.unselectLocked()
	s.opts.Host.FocusDocument()
}

// Insert opens an editor for a new comment anchored at the twips rectangle
// anchor. Only one draft exists at a time.
func (s *Section) Insert(anchor geom.Rect, part int, text string) (*comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.commandFor(doctype.OpInsert); err != nil {
		return nil, err
	}
	if err := s.refuseEditLocked(nil); err != nil {
		return nil, err
	}

	d := comment.Data{
		ID:         comment.NewID,
		Parent:     comment.RootParent,
		Author:     s.opts.LocalUser,
		DateTime:   time.Now().UTC().Format(time.RFC3339),
		AnchorRaw:  anchor.String(),
		Anchor:     anchor,
		Rectangles: []geom.Rect{anchor},
		Part:       part,
	}
	s.opts.Views.Decorate(&d)

	c := comment.New(d)
	c.PendingInit = true
	s.beginEdit(c, text)
	s.add(c)
	s.selectLocked(c, true)
	s.requestLayout()
	return c, nil
}

// Edit opens the editor of an existing comment.
func (s *Section) Edit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if err := s.refuseEditLocked(c); err != nil {
		return err
	}
	if !c.Editing {
		s.beginEdit(c, c.Data.Text)
	}
	s.selectLocked(c, true)
	s.requestLayout()
	return nil
}

// Save sends the edited body of id to the server and closes its editor.
func (s *Section) Save(ctx context.Context, id, text, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	s.sess.autoSaved = nil
	s.sess.wasAutoAdded = false

	if err := s.saveLocked(ctx, c, text, html); err != nil {
		return err
	}
	return s.flushImport(ctx)
}

// AutoSave sends the body of an open editor without closing it. Nothing is
// sent when the body is unchanged.
func (s *Section) AutoSave(ctx context.Context, id, text, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if !c.Editing {
		return nil
	}
	if text == c.Data.Text && html == c.Data.HTML {
		return nil
	}
	if c.IsNew() && c.AutoSaved && text == c.Draft {
		return nil
	}

	if !c.AutoSaved {
		c.Unedited = c.Data.Text
		c.UneditedHTML = c.Data.HTML
	}
	c.Draft = text
	c.AutoSaved = true
	s.sess.autoSaved = c
	s.sess.needFocus = c

	logging.CommentEvent(s.log.Debug(), c.ID(), c.Parent).Msg("autosaving")
	return s.saveLocked(ctx, c, text, html)
}

// saveLocked builds and sends the save command of c. Outside an autosave
// the editor is closed afterwards.
func (s *Section) saveLocked(ctx context.Context, c *comment.Comment, text, html string) error {
	var cmd command.Command
	var err error

	switch {
	case c.IsNew():
		if cmd, err = s.commandFor(doctype.OpInsert); err != nil {
			return err
		}
		cmd = s.withBody(cmd.With("Author", command.String(c.Data.Author)), text, html)
	case c.IsTrackedChange():
		if cmd, err = s.commandFor(doctype.OpEditTrackedChange); err != nil {
			return err
		}
		index, perr := strconv.ParseInt(c.Data.ChangeIndex(), 10, 64)
		if perr != nil {
			return fmt.Errorf("tracked change %s: bad index: %w", c.ID(), perr)
		}
		cmd = cmd.With("ChangeTrackingId", command.Long(index)).With("Text", command.String(text))
	default:
		if cmd, err = s.commandFor(doctype.OpEdit); err != nil {
			return err
		}
		cmd = cmd.With("Id", command.String(c.ID())).With("Author", command.String(c.Data.Author))
		cmd = s.withBody(cmd, text, html)
	}

	if err := s.send(ctx, cmd); err != nil {
		return err
	}

	if !c.IsNew() {
		c.Data.Text = text
		c.Data.HTML = html
	}

	if s.sess.autoSaved == nil {
		s.endEdit(c)
		if c.IsNew() {
			s.removeItem(comment.NewID)
		}
	}
	s.finish()
	s.requestLayout()
	return nil
}

// Reply sends a reply to id.
func (s *Section) Reply(ctx context.Context, id, text, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if err := s.refuseEditLocked(nil); err != nil {
		return err
	}
	cmd, err := s.commandFor(doctype.OpReply)
	if err != nil {
		return err
	}
	cmd = s.withBody(cmd.With("Id", command.String(c.ID())), text, html)

	s.sess.autoSaved = nil
	s.sess.wasAutoAdded = false
	c.Reply = ""

	if err := s.send(ctx, cmd); err != nil {
		return err
	}
	s.finish()
	return nil
}

// AutoSaveReply sends the reply typed under id when its editor loses
// focus. The server echo of the reply is reopened in an editor holding
// text, so the user can keep typing.
func (s *Section) AutoSaveReply(ctx context.Context, id, text, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	if err := s.refuseEditLocked(nil); err != nil {
		return err
	}
	cmd, err := s.commandFor(doctype.OpReply)
	if err != nil {
		return err
	}
	cmd = s.withBody(cmd.With("Id", command.String(c.ID())), text, html)

	c.Reply = text
	s.sess.autoSaved = c
	s.sess.needFocus = c

	logging.CommentEvent(s.log.Debug(), c.ID(), c.Parent).Msg("autosaving reply")
	if err := s.send(ctx, cmd); err != nil {
		c.Reply = ""
		s.sess.autoSaved = nil
		s.sess.needFocus = nil
		return err
	}
	return nil
}

// Remove deletes id on the server.
func (s *Section) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	return s.removeLocked(ctx, c)
}

func (s *Section) removeLocked(ctx context.Context, c *comment.Comment) error {
	cmd, err := s.commandFor(doctype.OpDelete)
	if err != nil {
		return err
	}
	c.SelfRemoved = true
	if err := s.send(ctx, cmd.With("Id", command.String(c.ID()))); err != nil {
		c.SelfRemoved = false
		return err
	}
	s.finish()
	return nil
}

// RemoveThread deletes the whole thread containing id.
func (s *Section) RemoveThread(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	cmd, err := s.commandFor(doctype.OpDeleteThread)
	if err != nil {
		return err
	}
	root := s.list.At(s.list.RootIndexOf(c.ID()))
	members := s.list.Thread(root.ID())
	for _, member := range members {
		member.SelfRemoved = true
	}
	if err := s.send(ctx, cmd.With("Id", command.String(c.ID()))); err != nil {
		for _, member := range members {
			member.SelfRemoved = false
		}
		return err
	}
	s.finish()
	return nil
}

// Resolve toggles the resolved state of id.
func (s *Section) Resolve(ctx context.Context, id string) error {
	return s.simple(ctx, id, doctype.OpResolve)
}

// ResolveThread toggles the resolved state of the thread containing id.
func (s *Section) ResolveThread(ctx context.Context, id string) error {
	return s.simple(ctx, id, doctype.OpResolveThread)
}

// Promote turns the reply id into the root of a new thread.
func (s *Section) Promote(ctx context.Context, id string) error {
	return s.simple(ctx, id, doctype.OpPromote)
}

func (s *Section) simple(ctx context.Context, id string, op doctype.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if op == doctype.OpPromote && c.IsRoot() {
		return fmt.Errorf("comment %s is already a thread root", id)
	}
	cmd, err := s.commandFor(op)
	if err != nil {
		return err
	}
	if err := s.send(ctx, cmd.With("Id", command.String(c.ID()))); err != nil {
		return err
	}
	s.finish()
	return nil
}

// Accept accepts the tracked change behind id.
func (s *Section) Accept(ctx context.Context, id string) error {
	return s.trackedChange(ctx, id, doctype.OpAcceptChange)
}

// Reject rejects the tracked change behind id.
func (s *Section) Reject(ctx context.Context, id string) error {
	return s.trackedChange(ctx, id, doctype.OpRejectChange)
}

func (s *Section) trackedChange(ctx context.Context, id string, op doctype.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	if !c.IsTrackedChange() {
		return fmt.Errorf("comment %s is not a tracked change", id)
	}
	cmd, err := s.commandFor(op)
	if err != nil {
		return err
	}
	cmd = cmd.With(cmd.Name, command.UnsignedShort(c.Data.ChangeIndex()))
	if err := s.send(ctx, cmd); err != nil {
		return err
	}
	s.finish()
	return nil
}

// RejectAllTrackedCommentChanges rejects every tracked change. Comments
// shown as deleted under change tracking become visible again.
func (s *Section) RejectAllTrackedCommentChanges(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.send(ctx, command.New("RejectAllTrackedChanges")); err != nil {
		return err
	}
	for i := 0; i < s.list.Len(); i++ {
		if c := s.list.At(i); c.Data.HasLayoutStatus && c.Data.LayoutStatus == comment.StatusDeleted {
			c.Data.LayoutStatus = comment.StatusVisible
		}
	}
	s.requestLayout()
	return nil
}

// Cancel closes the editor of id without saving. An autosaved draft that
// already reached the server is deleted again and an autosaved edit is
// reverted to the text it had before.
func (s *Section) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}

	switch {
	case s.sess.wasAutoAdded && !c.IsNew():
		if err := s.removeLocked(ctx, c); err != nil {
			return err
		}
	case c.AutoSaved && !c.IsNew():
		s.clearAutoSave()
		if err := s.saveLocked(ctx, c, c.Unedited, c.UneditedHTML); err != nil {
			return err
		}
	}

	s.cancelEditLocked(c)
	s.clearAutoSave()
	s.opts.Host.FocusDocument()
	return s.flushImport(ctx)
}

// cancelEditLocked closes the editor of c. The draft disappears with it.
func (s *Section) cancelEditLocked(c *comment.Comment) {
	if c == nil {
		return
	}
	s.endEdit(c)
	if c.IsNew() {
		s.removeItem(comment.NewID)
		s.requestLayout()
		return
	}

	if root := s.list.At(s.list.RootIndexOf(c.ID())); root != nil && s.sel.Selected() == root {
		s.unselectLocked()
		return
	}
	s.requestLayout()
}

// Select selects the thread containing id.
func (s *Section) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	s.selectLocked(c, false)
	return nil
}

// Unselect clears the selection. The unsaved draft stays selected.
func (s *Section) Unselect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unselectLocked()
}

// ToggleShowBigger pops the thread containing id out of the lane or back.
func (s *Section) ToggleShowBigger(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	prev := s.sel.SelectedID()
	s.sel.ToggleShowBigger(c)
	if cur := s.sel.SelectedID(); cur != prev {
		s.opts.Bus.PublishCommentSelected(eventbus.CommentSelectedPayload{Previous: prev, Current: cur})
	}
	return nil
}

// Highlight marks the reply chain of id.
func (s *Section) Highlight(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list.Lookup(id)
	if err != nil {
		return err
	}
	s.sel.Highlight(c)
	s.requestLayout()
	return nil
}

// RemoveHighlights clears every highlight.
func (s *Section) RemoveHighlights() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.RemoveHighlights()
}
