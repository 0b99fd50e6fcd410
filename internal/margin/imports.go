package margin

import (
	"context"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
)

// ImportComments replaces every comment with the server's full list.
// Tracked changes are kept. While an editor is open the import is deferred
// and requested again once the editor closes.
func (s *Section) ImportComments(ctx context.Context, payloads []comment.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active := s.activeEditLocked(); active != nil {
		s.sess.pendingImport = true
		logging.CommentEvent(s.log.Info(), active.ID(), "").Msg("comment import deferred while editing")
		return nil
	}

	s.sess.importing = true
	defer func() { s.sess.importing = false }()

	s.opts.Host.PauseDrawing()
	s.clearComments()

	added := 0
	for _, p := range payloads {
		d := s.normalize(p)
		if s.list.Contains(d.ID) {
			logging.CommentEvent(s.log.Warn(), d.ID, d.Parent).Msg("duplicate comment in import, skipping")
			continue
		}
		c := comment.New(d)
		if !s.opts.Host.AddSection(c) {
			continue
		}
		if s.kind() == doctype.Spreadsheet {
			c.Hidden = true
		}
		s.list.Append(c)
		added++
	}

	if added > 0 {
		s.list.GroupChildren()
		s.opts.Behavior.BuildThreads(s.list)
		if s.sel.Collapsed() {
			s.sel.SetCollapsed(true)
		}
	}
	s.opts.Host.ResumeDrawing()

	s.setViewResolvedLocked(s.sel.ShowResolved())
	if s.kind() == doctype.Presentation || s.kind() == doctype.Drawing {
		s.showHideAll()
	}

	s.log.Info().Int("comments", added).Msg("comments imported")
	s.opts.Bus.PublishImportCompleted(eventbus.ImportCompletedPayload{Comments: added})
	s.requestLayout()
	return nil
}

// ImportChanges replaces every tracked change with the server's list.
func (s *Section) ImportChanges(ctx context.Context, payloads []comment.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.Host.PauseDrawing()
	s.clearChanges()

	added := 0
	for _, p := range payloads {
		d, ok := s.normalizeRedline(p)
		if !ok {
			continue
		}
		if s.list.Contains(d.ID) {
			logging.CommentEvent(s.log.Warn(), d.ID, "").Msg("duplicate tracked change in import, skipping")
			continue
		}
		c := comment.New(d)
		if !s.opts.Host.AddSection(c) {
			continue
		}
		if s.kind() == doctype.Spreadsheet {
			c.Hidden = true
		}
		s.list.Append(c)
		added++
	}

	if added > 0 {
		s.opts.Behavior.BuildThreads(s.list)
	}
	s.opts.Host.ResumeDrawing()

	s.log.Info().Int("changes", added).Msg("tracked changes imported")
	s.opts.Bus.PublishImportCompleted(eventbus.ImportCompletedPayload{Comments: added, TrackedChanges: true})
	s.requestLayout()
	return nil
}

// clearComments drops every comment that is not a tracked change.
func (s *Section) clearComments() {
	s.clearWhere(func(c *comment.Comment) bool { return !c.IsTrackedChange() })
	s.clearAutoSave()
}

// clearChanges drops every tracked change.
func (s *Section) clearChanges() {
	s.clearWhere((*comment.Comment).IsTrackedChange)
}

func (s *Section) clearWhere(match func(*comment.Comment) bool) {
	if sel := s.sel.Selected(); sel != nil && match(sel) {
		s.sel.Forget(sel.ID())
	}
	s.list.RemoveFunc(func(c *comment.Comment) bool {
		if !match(c) {
			return false
		}
		s.opts.Host.RemoveSection(c.ID())
		return true
	})
}
