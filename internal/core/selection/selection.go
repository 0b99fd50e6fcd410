// Package selection tracks the selected thread of the margin, the highlight
// chain and the popped out view, and keeps the selection on screen.
package selection

import (
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/thread"
)

// Scroller moves the document view. Values are core pixels.
type Scroller interface {
	ScreenTopBottom() (top, bottom int)
	ScrollVerticalWithOffset(delta int)
}

// Popup shows a single comment next to its cell. Only spreadsheets use it.
type Popup interface {
	Show(c *comment.Comment)
	Hide(c *comment.Comment)
	// Position returns where the popup of c sits, in core pixels.
	Position(c *comment.Comment) geom.Point
}

// Options wires a Controller to its collaborators. Every field except
// Behavior is optional.
type Options struct {
	Behavior  doctype.Behavior
	Converter geom.Converter
	Measurer  layout.Measurer
	Scroller  Scroller
	Popup     Popup
	// Update requests a layout pass.
	Update func()
	// ScrollSuppressed reports whether automatic scrolling is paused, as it
	// is during a comment import.
	ScrollSuppressed func() bool
}

// Controller owns the selection state of one comment list.
type Controller struct {
	list *thread.List
	opts Options

	selected     *comment.Comment
	showBigger   bool
	showResolved bool
	collapsed    bool
	listed       bool
}

// New creates a controller for l.
func New(l *thread.List, opts Options) *Controller {
	return &Controller{list: l, opts: opts, listed: true}
}

// Selected returns the selected root, or nil.
func (s *Controller) Selected() *comment.Comment { return s.selected }

// SelectedID returns the id of the selected root, or "".
func (s *Controller) SelectedID() string {
	if s.selected == nil {
		return ""
	}
	return s.selected.ID()
}

// ShowBigger reports whether the selected thread is popped out.
func (s *Controller) ShowBigger() bool { return s.showBigger }

// ShowResolved reports whether resolved comments are shown.
func (s *Controller) ShowResolved() bool { return s.showResolved }

// SetShowResolved changes the resolved filter used by Select.
func (s *Controller) SetShowResolved(show bool) { s.showResolved = show }

// Collapsed reports whether the list is in collapsed mode.
func (s *Controller) Collapsed() bool { return s.collapsed }

// SetListed records whether comments are listed in the margin at all. A
// list that is not shown never collapses threads.
func (s *Controller) SetListed(listed bool) { s.listed = listed }

// SetCollapsed switches collapsed mode. Entering it collapses every thread
// except the selected one; leaving it expands everything.
func (s *Controller) SetCollapsed(collapsed bool) {
	s.collapsed = collapsed

	for i := 0; i < s.list.Len(); i++ {
		c := s.list.At(i)
		if !c.IsRoot() {
			continue
		}
		if collapsed && c != s.selected {
			s.collapseThread(c)
		} else {
			s.expandThread(c)
		}
	}
}

// Select makes the thread containing c the selection. It reports whether
// the selection changed. Unless force is set, drafts that are not shown yet,
// the current selection and hidden resolved comments are refused.
func (s *Controller) Select(c *comment.Comment, force bool) bool {
	if c == nil {
		return false
	}
	if !force && (c.PendingInit || c == s.selected || (c.IsResolved() && !s.showResolved)) {
		return false
	}

	root := s.list.At(s.list.RootIndexOf(c.ID()))
	if root == nil {
		return false
	}
	if root == s.selected {
		s.update()
		return false
	}

	if s.selected != nil {
		s.Unselect()
	}

	s.selected = root
	root.Active = true

	if s.opts.Behavior.SupportsPopOut() && s.showBigger {
		s.setPoppedOut(root, true)
	}

	s.ScrollIntoView(c)

	if s.collapsed {
		s.expandThread(root)
	}

	s.update()
	return true
}

// SelectByID selects the thread containing id.
func (s *Controller) SelectByID(id string) bool {
	return s.Select(s.list.At(s.list.RootIndexOf(id)), false)
}

// Unselect clears the selection. The unsaved draft stays selected until it
// is saved or cancelled.
func (s *Controller) Unselect() bool {
	if s.selected == nil || s.selected.IsNew() {
		return false
	}

	root := s.selected
	root.Active = false

	if s.opts.Behavior.Kind() == doctype.Spreadsheet {
		root.Hidden = true
		if s.opts.Popup != nil {
			s.opts.Popup.Hide(root)
		}
	}

	if s.listed && s.collapsed {
		s.collapseThread(root)
	}

	if s.opts.Behavior.SupportsPopOut() && s.showBigger {
		s.setPoppedOut(root, false)
		s.showBigger = false
	}

	s.selected = nil
	s.update()
	return true
}

// Forget drops the selection without touching the comment, used when the
// selected comment leaves the list.
func (s *Controller) Forget(id string) {
	if s.selected != nil && s.selected.ID() == id {
		s.selected = nil
		s.showBigger = false
	}
}

// ToggleShowBigger pops the thread containing c out of the lane, or back
// in when it already is.
func (s *Controller) ToggleShowBigger(c *comment.Comment) {
	root := s.list.At(s.list.RootIndexOf(c.ID()))
	if root == nil {
		return
	}

	selected := root == s.selected
	switch {
	case s.showBigger && selected:
		s.showBigger = false
		s.setPoppedOut(root, false)
	case !selected:
		if s.selected != nil {
			s.Unselect()
		}
		s.showBigger = true
		s.Select(c, false)
	default:
		s.showBigger = true
		s.setPoppedOut(root, true)
		s.ScrollIntoView(c)
	}
	s.update()
}

// Highlight marks the chain from the last comment of c's thread up to the
// root, clearing any previous highlight.
func (s *Controller) Highlight(c *comment.Comment) {
	s.RemoveHighlights()

	last := s.list.At(s.list.LastChildIndexOf(c.ID()))
	if last == nil {
		return
	}
	last.Highlighted = true
	for _, a := range s.list.Ancestors(last.ID()) {
		a.Highlighted = true
	}
}

// RemoveHighlights clears every highlight.
func (s *Controller) RemoveHighlights() {
	for _, c := range s.list.Items() {
		c.Highlighted = false
	}
}

// ScrollIntoView scrolls the document so c is visible and returns the
// applied delta in core pixels. The top of c is its root's anchor plus the
// height of the comments before it in the thread. Spreadsheet comments are
// not drawn on the canvas, so their popup position stands in for the anchor.
func (s *Controller) ScrollIntoView(c *comment.Comment) int {
	if s.opts.Scroller == nil {
		return 0
	}
	if s.opts.ScrollSuppressed != nil && s.opts.ScrollSuppressed() {
		return 0
	}

	kind := s.opts.Behavior.Kind()
	if kind != doctype.Text && kind != doctype.Spreadsheet {
		return 0
	}

	rootIdx := s.list.RootIndexOf(c.ID())
	root := s.list.At(rootIdx)
	if root == nil {
		return 0
	}

	var anchor geom.Point
	switch kind {
	case doctype.Spreadsheet:
		if s.opts.Popup == nil {
			return 0
		}
		anchor = s.opts.Popup.Position(root)
	default:
		anchor = s.opts.Converter.PointToCore(root.Data.Anchor.Origin())
	}
	if anchor.Y <= 0 {
		return 0
	}

	top := anchor.Y
	for i := rootIdx; i < s.list.IndexOf(c.ID()); i++ {
		top += s.opts.Converter.CSSToCore(s.height(s.list.At(i)))
	}
	bottom := top + s.opts.Converter.CSSToCore(s.height(c))

	screenTop, screenBottom := s.opts.Scroller.ScreenTopBottom()
	delta := geom.ScrollDelta(top, bottom, screenTop, screenBottom)
	if delta == 0 {
		return 0
	}

	s.opts.Scroller.ScrollVerticalWithOffset(delta)
	if kind == doctype.Spreadsheet && s.opts.Popup != nil {
		root.Hidden = false
		s.opts.Popup.Show(root)
	}
	return delta
}

func (s *Controller) height(c *comment.Comment) int {
	if s.opts.Measurer == nil {
		return 0
	}
	return s.opts.Measurer.Measure(c.ID()).Height
}

func (s *Controller) collapseThread(root *comment.Comment) {
	for _, c := range s.list.Thread(root.ID()) {
		c.Collapsed = true
	}
}

func (s *Controller) expandThread(root *comment.Comment) {
	for _, c := range s.list.Thread(root.ID()) {
		c.Collapsed = false
	}
}

func (s *Controller) setPoppedOut(root *comment.Comment, popped bool) {
	for _, c := range s.list.Thread(root.ID()) {
		c.PoppedOut = popped
	}
}

func (s *Controller) update() {
	if s.opts.Update != nil {
		s.opts.Update()
	}
}
