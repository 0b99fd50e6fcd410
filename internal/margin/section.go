// Package margin is the comment section of a document: it keeps the
// thread list in step with server acknowledgments, turns user actions into
// server commands and lays the result out next to the document.
package margin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/selection"
	"github.com/colonyops/margin/internal/core/thread"
)

var (
	// ErrEditInProgress is returned when an action needs a comment editor
	// while another one is open.
	ErrEditInProgress = errors.New("a comment is being edited")
	// ErrUnsupported is returned for operations the document type lacks.
	ErrUnsupported = errors.New("operation not supported for this document type")
)

// session holds the cross event flags of the autosave and import flows.
type session struct {
	// autoSaved is the comment whose autosave is awaiting its echo.
	autoSaved *comment.Comment
	// needFocus is the comment whose editor should regain focus.
	needFocus *comment.Comment
	// wasAutoAdded is set once an autosaved draft came back as a real
	// comment, so cancelling it deletes it again.
	wasAutoAdded  bool
	importing     bool
	pendingImport bool
}

// State is a snapshot of a Section's flags.
type State struct {
	SelectedID    string
	ActiveEditID  string
	AutoSavedID   string
	NeedFocusID   string
	WasAutoAdded  bool
	Importing     bool
	PendingImport bool
	Collapsed     bool
	ShowBigger    bool
	ShowResolved  bool
	Shown         bool
	SelectedPart  int
	Deflection    int
}

// Section owns one document's comment list. All methods are safe for
// concurrent use; layout passes run on the scheduler goroutine under the
// same lock.
type Section struct {
	mu   sync.Mutex
	opts Options
	log  zerolog.Logger

	list   *thread.List
	sel    *selection.Controller
	engine *layout.Engine
	sched  *layout.Scheduler

	sess session

	viewport     layout.Viewport
	deflection   int
	selectedPart int
	shown        bool
	showChanges  bool
	partsByHash  map[string]int
	partsByIndex map[int]int
	result       layout.Result
}

// New creates an empty Section.
func New(opts Options) (*Section, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	s := &Section{
		opts:        opts,
		log:         logging.Component("margin"),
		list:        thread.New(logging.Component("thread")),
		engine:      layout.NewEngine(opts.Behavior, opts.Converter, opts.Layout),
		deflection:  opts.Deflection,
		shown:       true,
		showChanges: opts.ShowTrackedChanges,
	}
	s.viewport.RTL = opts.RTL
	s.sched = layout.NewScheduler(opts.Debounce, s.runScheduled)
	s.sel = selection.New(s.list, selection.Options{
		Behavior:  opts.Behavior,
		Converter: opts.Converter,
		Measurer:  opts.Measurer,
		Scroller:  opts.Scroller,
		Popup:     opts.Popup,
		Update:    s.requestLayout,
		// called with s.mu held
		ScrollSuppressed: func() bool { return s.sess.importing },
	})
	s.sel.SetShowResolved(opts.ShowResolved)
	s.sel.SetListed(opts.Behavior.ListsComments(opts.Mobile))

	if opts.Mobile && s.kind() != doctype.Spreadsheet {
		s.sel.SetCollapsed(true)
	}
	return s, nil
}

// Close cancels a pending layout pass.
func (s *Section) Close() {
	s.sched.Cancel()
}

func (s *Section) kind() doctype.Kind { return s.opts.Behavior.Kind() }

// Len returns the number of comments in the list.
func (s *Section) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Len()
}

// Comments returns the list in thread order. The comments are live; read
// them only while no other goroutine drives the Section.
func (s *Section) Comments() []*comment.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Items()
}

// Get returns the comment with the given id.
func (s *Section) Get(id string) (*comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Lookup(id)
}

// Resolution reports the resolution state of the thread containing id.
func (s *Section) Resolution(id string) thread.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Resolution(id)
}

// State returns a snapshot of the section flags.
func (s *Section) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SelectedID:    s.sel.SelectedID(),
		WasAutoAdded:  s.sess.wasAutoAdded,
		Importing:     s.sess.importing,
		PendingImport: s.sess.pendingImport,
		Collapsed:     s.sel.Collapsed(),
		ShowBigger:    s.sel.ShowBigger(),
		ShowResolved:  s.sel.ShowResolved(),
		Shown:         s.shown,
		SelectedPart:  s.selectedPart,
		Deflection:    s.deflection,
	}
	if c := s.activeEditLocked(); c != nil {
		st.ActiveEditID = c.ID()
	}
	if s.sess.autoSaved != nil {
		st.AutoSavedID = s.sess.autoSaved.ID()
	}
	if s.sess.needFocus != nil {
		st.NeedFocusID = s.sess.needFocus.ID()
	}
	return st
}

// ActiveEdit returns the comment whose editor is open, or nil. The selected
// thread is searched first.
func (s *Section) ActiveEdit() *comment.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeEditLocked()
}

func (s *Section) activeEditLocked() *comment.Comment {
	if sel := s.sel.Selected(); sel != nil {
		for _, c := range s.list.Thread(sel.ID()) {
			if c.Editing {
				return c
			}
		}
	}
	for i := 0; i < s.list.Len(); i++ {
		if c := s.list.At(i); c.Editing {
			return c
		}
	}
	return nil
}

// refuseEditLocked fails with ErrEditInProgress when an editor other than
// target's is open.
func (s *Section) refuseEditLocked(target *comment.Comment) error {
	active := s.activeEditLocked()
	if active == nil || active == target {
		return nil
	}

	requested := ""
	if target != nil {
		requested = target.ID()
	}
	s.opts.Bus.PublishEditRefused(eventbus.EditRefusedPayload{ActiveID: active.ID(), RequestedID: requested})
	logging.CommentEvent(s.log.Debug(), active.ID(), "").Str("requested", requested).Msg("edit refused")
	return fmt.Errorf("%w: %s", ErrEditInProgress, active.ID())
}

func (s *Section) beginEdit(c *comment.Comment, draft string) {
	c.Editing = true
	c.Draft = draft
}

func (s *Section) endEdit(c *comment.Comment) {
	c.Editing = false
	c.Draft = ""
	c.AutoSaved = false
	c.Unedited = ""
	c.UneditedHTML = ""
}

func (s *Section) clearAutoSave() {
	s.sess.autoSaved = nil
	s.sess.needFocus = nil
	s.sess.wasAutoAdded = false
}

// send hands cmd to the transport and announces it on the bus.
func (s *Section) send(ctx context.Context, cmd command.Command) error {
	if err := s.opts.Transport.Send(ctx, cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Name, err)
	}
	s.log.Debug().Str("command", cmd.Name).Msg("command sent")
	s.opts.Bus.PublishCommandSent(eventbus.CommandSentPayload{Command: cmd})
	return nil
}

// selectLocked selects the thread of c and announces a change.
func (s *Section) selectLocked(c *comment.Comment, force bool) bool {
	prev := s.sel.SelectedID()
	changed := s.sel.Select(c, force)
	if cur := s.sel.SelectedID(); cur != prev {
		s.opts.Bus.PublishCommentSelected(eventbus.CommentSelectedPayload{Previous: prev, Current: cur})
	}
	return changed
}

func (s *Section) unselectLocked() bool {
	prev := s.sel.SelectedID()
	if !s.sel.Unselect() {
		return false
	}
	s.opts.Bus.PublishCommentSelected(eventbus.CommentSelectedPayload{Previous: prev})
	return true
}

// add inserts c into the list and the scene. A comment with the same id is
// replaced.
func (s *Section) add(c *comment.Comment) *comment.Comment {
	if s.list.Contains(c.ID()) || s.opts.Host.HasSection(c.ID()) {
		s.removeItem(c.ID())
	}

	s.opts.Host.AddSection(c)
	s.list.Append(c)
	s.list.AttachToParent(c)
	s.opts.Behavior.BuildThreads(s.list)

	if s.sel.Collapsed() && !c.IsNew() {
		root := s.list.At(s.list.RootIndexOf(c.ID()))
		c.Collapsed = root != s.sel.Selected()
	}

	logging.CommentEvent(s.log.Debug(), c.ID(), c.Parent).Msg("comment added")
	s.opts.Bus.PublishCommentAdded(eventbus.CommentAddedPayload{
		ID:            c.ID(),
		Parent:        c.Parent,
		TrackedChange: c.IsTrackedChange(),
	})

	if !c.IsNew() && s.opts.LocalUser != "" && c.Data.Author == s.opts.LocalUser {
		s.selectLocked(c, false)
	}
	return c
}

// removeItem drops id from the list and the scene. Its replies become
// roots and thread order is rebuilt.
func (s *Section) removeItem(id string) {
	c := s.list.Get(id)
	if c == nil {
		s.opts.Host.RemoveSection(id)
		return
	}

	s.list.Detach(c)
	s.list.Remove(id)
	s.opts.Host.RemoveSection(id)
	s.sel.Forget(id)
	if s.sess.needFocus == c {
		s.sess.needFocus = nil
	}
	s.opts.Behavior.BuildThreads(s.list)

	logging.CommentEvent(s.log.Debug(), id, "").Msg("comment removed")
	s.opts.Bus.PublishCommentRemoved(eventbus.CommentRemovedPayload{ID: id})
}

// Update lays the list out, now or on the next scheduler tick.
func (s *Section) Update(immediate bool) {
	if !immediate {
		s.requestLayout()
		return
	}
	s.sched.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layoutLocked()
}

// Flush runs a pending layout pass right away. It reports whether one was
// pending.
func (s *Section) Flush() bool {
	if !s.sched.Cancel() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layoutLocked()
	return true
}

// Layout returns the last applied layout.
func (s *Section) Layout() layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Section) requestLayout() {
	s.sched.Schedule()
}

func (s *Section) runScheduled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layoutLocked()
}

func (s *Section) layoutLocked() {
	if !s.shown {
		return
	}

	st := layout.State{
		Selected:           s.sel.SelectedID(),
		ShowResolved:       s.sel.ShowResolved(),
		ShowBigger:         s.sel.ShowBigger(),
		ShowTrackedChanges: s.showChanges,
		Deflection:         s.deflection,
		SelectedPart:       s.selectedPart,
		FileBasedView:      s.opts.FileBasedView,
	}
	res := s.engine.Compute(s.list, s.opts.Measurer, s.viewport, st)
	s.result = res
	s.opts.Host.ApplyLayout(res)
	for _, c := range s.list.Items() {
		c.PendingInit = false
	}

	s.opts.Bus.PublishLayoutApplied(eventbus.LayoutAppliedPayload{
		Placements: len(res.Placements),
		ViewHeight: res.ViewHeight,
		Collapsed:  s.sel.Collapsed(),
	})
}
