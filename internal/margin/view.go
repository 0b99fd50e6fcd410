package margin

import (
	"context"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/protocol"
)

// SetViewResolved shows or hides resolved comments.
func (s *Section) SetViewResolved(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setViewResolvedLocked(show)
}

func (s *Section) setViewResolvedLocked(show bool) {
	s.sel.SetShowResolved(show)
	if s.kind() == doctype.Text {
		s.showHideAll()
	}
	s.requestLayout()
}

// SetView shows or hides the whole margin. A hidden margin skips layout.
func (s *Section) SetView(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shown = show
	for i := 0; i < s.list.Len(); i++ {
		s.list.At(i).Hidden = !show
	}
	if show {
		s.showHideAll()
		s.requestLayout()
	}
}

// SetShowTrackedChanges toggles the tracked change indicators. Turning them
// on asks the server for a fresh comment list.
func (s *Section) SetShowTrackedChanges(ctx context.Context, show bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showChanges = show
	s.requestLayout()
	if !show {
		return nil
	}
	return s.send(ctx, command.NewQuery("ViewAnnotations"))
}

// SetPart switches the visible slide or sheet. An editor open on the
// selected thread is closed first.
func (s *Section) SetPart(part int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPartLocked(part)
}

func (s *Section) setPartLocked(part int) {
	if sel := s.sel.Selected(); sel != nil {
		for _, c := range s.list.Thread(sel.ID()) {
			if c.Editing {
				s.cancelEditLocked(c)
				break
			}
		}
	}

	s.selectedPart = part
	s.showHideAll()
	s.requestLayout()
}

// SelectedPart returns the visible slide or sheet.
func (s *Section) SelectedPart() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedPart
}

// NextPartWithComment moves to the nearest following part that has a
// comment and returns it. The part is unchanged when there is none.
func (s *Section) NextPartWithComment() int {
	return s.stepPart(true)
}

// PreviousPartWithComment moves to the nearest preceding part that has a
// comment and returns it.
func (s *Section) PreviousPartWithComment() int {
	return s.stepPart(false)
}

func (s *Section) stepPart(forward bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := -1
	for i := 0; i < s.list.Len(); i++ {
		p := s.list.At(i).Data.Part
		if p < 0 {
			continue
		}
		switch {
		case forward && p > s.selectedPart && (best < 0 || p < best):
			best = p
		case !forward && p < s.selectedPart && (best < 0 || p > best):
			best = p
		}
	}
	if best < 0 {
		return s.selectedPart
	}
	s.setPartLocked(best)
	return best
}

// SetParts records the vertical offset of every part of a file based view.
// Comments normalized afterwards are shifted by their part's offset.
func (s *Section) SetParts(parts []protocol.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.partsByHash = make(map[string]int, len(parts))
	s.partsByIndex = make(map[int]int, len(parts))
	for _, p := range parts {
		if p.Hash != "" {
			s.partsByHash[p.Hash] = p.YOffset
		}
		s.partsByIndex[p.Part] = p.YOffset
	}
}

func (s *Section) partYOffset() func(hash string, part int) int {
	if !s.opts.FileBasedView || (len(s.partsByHash) == 0 && len(s.partsByIndex) == 0) {
		return nil
	}
	return func(hash string, part int) int {
		if off, ok := s.partsByHash[hash]; ok && hash != "" {
			return off
		}
		return s.partsByIndex[part]
	}
}

// SetViewport records where the document sits on screen and re-evaluates
// the collapse state.
func (s *Section) SetViewport(vp layout.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vp.RTL = vp.RTL || s.opts.RTL
	s.viewport = vp
	s.sel.RemoveHighlights()
	s.checkCollapseStateLocked()
	s.requestLayout()
}

// Viewport returns the last viewport set.
func (s *Section) Viewport() layout.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// ShouldCollapse reports whether the margin is too narrow for the lane.
func (s *Section) ShouldCollapse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ShouldCollapse(s.viewport, s.opts.Mobile)
}

// checkCollapseStateLocked switches collapsed mode and the deflection to
// match the viewport. Spreadsheets never collapse; mobile always does.
func (s *Section) checkCollapseStateLocked() {
	if s.kind() == doctype.Spreadsheet {
		return
	}

	collapse := s.engine.ShouldCollapse(s.viewport, s.opts.Mobile)
	if collapse {
		s.deflection = s.opts.DeflectionCollapsed
	} else {
		s.deflection = s.opts.DeflectionExpanded
	}
	s.setCollapsedLocked(collapse)

	if s.kind() != doctype.Text {
		s.showHideAll()
	}
}

func (s *Section) setCollapsedLocked(collapsed bool) {
	if collapsed == s.sel.Collapsed() {
		return
	}
	if s.activeEditLocked() != nil {
		return
	}
	if collapsed {
		s.unselectLocked()
	}
	s.sel.SetCollapsed(collapsed)
	s.requestLayout()
}

// ScrollTo moves the document top to top, in core pixels, and lays out
// right away so the margin follows the scroll.
func (s *Section) ScrollTo(top int) {
	s.sched.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport.DocumentTop = top
	if s.kind() == doctype.Spreadsheet {
		if sel := s.sel.Selected(); sel != nil {
			sel.Hidden = true
			if s.opts.Popup != nil {
				s.opts.Popup.Hide(sel)
			}
		}
	}
	s.layoutLocked()
}
