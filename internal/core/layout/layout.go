// Package layout positions comment boxes in the margin lane next to the
// document. It is pure: measurements come in through a Measurer and the
// result is a set of placements the caller applies.
//
// Vertical math is done in core pixels and converted to CSS pixels only when
// a placement is recorded.
package layout

import (
	"strconv"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/thread"
)

// Metrics is the rendered size of a comment box in CSS pixels.
type Metrics struct {
	Height        int
	Width         int
	ContentHeight int
	HeaderHeight  int
}

// Measurer reports the rendered size of a comment.
type Measurer interface {
	Measure(id string) Metrics
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(id string) Metrics

// Measure implements Measurer.
func (f MeasureFunc) Measure(id string) Metrics { return f(id) }

// Settings are the fixed lane dimensions in CSS pixels.
type Settings struct {
	CommentWidth    int
	CollapsedMargin int
	MarginY         int
	MinHeight       int
	MaxHeight       int
	// GrowUp lets a comment that lacks room below borrow free space above it.
	GrowUp bool
}

// DefaultSettings returns the stock lane dimensions.
func DefaultSettings() Settings {
	return Settings{
		CommentWidth:    260,
		CollapsedMargin: 120,
		MarginY:         10,
		MinHeight:       100,
		MaxHeight:       300,
	}
}

// Viewport describes where the document and the anchor section sit on
// screen, in core pixels.
type Viewport struct {
	// SectionLeft and SectionTop locate the comment section.
	SectionLeft int
	SectionTop  int
	// DocumentLeft and DocumentTop are the scroll position of the document.
	DocumentLeft int
	DocumentTop  int
	// AnchorSection is the visible document area.
	AnchorSectionLeft  int
	AnchorSectionTop   int
	AnchorSectionWidth int
	// FileWidth and FileHeight are the document size.
	FileWidth  int
	FileHeight int
	// ContainerWidth is the width of the document container in CSS pixels.
	ContainerWidth int
	RTL            bool
}

// State is the selection and filter state a layout pass reads.
type State struct {
	// Selected is the root id of the selected thread, empty for none.
	Selected           string
	ShowResolved       bool
	ShowBigger         bool
	ShowTrackedChanges bool
	// Deflection is how far the selected thread is pushed out of the lane,
	// in CSS pixels.
	Deflection    int
	SelectedPart  int
	FileBasedView bool
}

// Placement is the on screen position of one comment in CSS pixels.
type Placement struct {
	ID string
	X  int
	Y  int
}

// Arrow connects the selected comment's anchor to its box, in CSS pixels
// relative to the anchor section.
type Arrow struct {
	From geom.Point
	To   geom.Point
}

// Result is the outcome of a layout pass.
type Result struct {
	// Placements are in layout order: the run above the selection bottom up,
	// then everything from the selection down.
	Placements []Placement
	Arrow      *Arrow
	// MaxHeights holds the content height cap of comments whose box was
	// constrained by the next comment.
	MaxHeights map[string]int
	// Indicators maps each root id to its thread badge.
	Indicators map[string]string
	// ViewHeight is the height the document view must scroll to, in core
	// pixels.
	ViewHeight int
}

// Placement returns the placement of id.
func (r Result) Placement(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Engine computes layouts for one document type.
type Engine struct {
	behavior doctype.Behavior
	conv     geom.Converter
	settings Settings
}

// NewEngine creates a layout engine.
func NewEngine(behavior doctype.Behavior, conv geom.Converter, settings Settings) *Engine {
	return &Engine{behavior: behavior, conv: conv, settings: settings}
}

// Converter returns the unit converter the engine uses.
func (e *Engine) Converter() geom.Converter { return e.conv }

// Settings returns the lane dimensions.
func (e *Engine) Settings() Settings { return e.settings }

// AvailableSpace is the free horizontal room beside the document in CSS
// pixels: half the difference between the anchor section and the document.
func (e *Engine) AvailableSpace(vp Viewport) int {
	return e.conv.CoreToCSS((vp.AnchorSectionWidth - vp.FileWidth) / 2)
}

// ShouldCollapse reports whether the list must render collapsed.
func (e *Engine) ShouldCollapse(vp Viewport, mobile bool) bool {
	if e.behavior.Kind() == doctype.Spreadsheet {
		return false
	}
	if mobile {
		return true
	}
	if vp.AnchorSectionWidth == 0 {
		return false
	}
	return e.AvailableSpace(vp) < e.settings.CommentWidth
}

// Visible reports whether c takes part in the layout.
func (e *Engine) Visible(c *comment.Comment, st State) bool {
	if c.IsResolved() && !st.ShowResolved {
		return false
	}
	if e.behavior.MustCheckSelectedPart(st.FileBasedView) && c.Data.Part >= 0 && c.Data.Part != st.SelectedPart {
		return false
	}
	if c.Collapsed && !c.IsRoot() {
		return false
	}
	return true
}

// Compute lays out l.
func (e *Engine) Compute(l *thread.List, m Measurer, vp Viewport, st State) Result {
	res := Result{
		MaxHeights: make(map[string]int),
		Indicators: Indicators(l, st.ShowTrackedChanges),
		ViewHeight: vp.FileHeight,
	}
	if !e.behavior.SupportsThreadLayout() || l.Len() == 0 {
		return res
	}

	p := &pass{
		engine:  e,
		list:    l,
		measure: m,
		vp:      vp,
		st:      st,
		res:     &res,
		marginY: e.conv.CSSToCore(e.settings.MarginY),
	}

	x := e.laneX(vp)
	topY := vp.SectionTop + p.marginY - vp.DocumentTop

	selected := -1
	if st.Selected != "" {
		selected = l.RootIndexOf(st.Selected)
	}

	var lastY int
	if selected >= 0 {
		root := l.At(selected)
		anchor := e.conv.PointToCore(root.Data.Anchor.Origin())
		yOrigin := anchor.Y - vp.DocumentTop

		if !root.IsResolved() || st.ShowResolved {
			res.Arrow = e.arrow(anchor, x, vp)
		}

		p.loopUp(selected-1, x, yOrigin)
		lastY = p.loopDown(selected, x, yOrigin)
	} else {
		lastY = p.loopDown(0, x, topY)
	}

	if e.behavior.ResizesComments() {
		p.resize()
	}

	lastY += vp.DocumentTop
	if lastY > res.ViewHeight {
		res.ViewHeight = lastY
	}
	return res
}

// laneX returns the core pixel x of the comment lane.
func (e *Engine) laneX(vp Viewport) int {
	x := vp.SectionLeft
	if vp.RTL {
		x = 0
	}

	if e.AvailableSpace(vp) > e.settings.CommentWidth {
		gap := (vp.AnchorSectionWidth - vp.FileWidth) / 2
		if vp.RTL {
			return gap - vp.AnchorSectionWidth
		}
		return x - gap
	}

	if vp.RTL {
		return -vp.AnchorSectionWidth
	}
	return x - e.conv.CSSToCore(e.settings.CollapsedMargin)
}

func (e *Engine) arrow(anchor geom.Point, x int, vp Viewport) *Arrow {
	endX := x
	if vp.RTL {
		endX = vp.AnchorSectionWidth + x + 15
	}

	from := geom.Point{
		X: anchor.X - vp.AnchorSectionLeft - vp.DocumentLeft,
		Y: anchor.Y - vp.AnchorSectionTop - vp.DocumentTop,
	}
	to := geom.Point{X: endX, Y: from.Y}

	return &Arrow{
		From: geom.Point{X: e.conv.CoreToCSS(from.X), Y: e.conv.CoreToCSS(from.Y)},
		To:   geom.Point{X: e.conv.CoreToCSS(to.X), Y: e.conv.CoreToCSS(to.Y)},
	}
}

// Indicators computes the badge of every root: the number of replies that
// are neither resolved nor tracked deletions (unless tracked changes are
// shown), or "!" when a comment of the thread is being edited.
func Indicators(l *thread.List, showTrackedChanges bool) map[string]string {
	out := make(map[string]string)
	for i := 0; i < l.Len(); i++ {
		root := l.At(i)
		if !root.IsRoot() {
			continue
		}

		last := l.LastChildIndexOf(root.ID())
		replies := 0
		editing := false
		for j := i; j <= last; j++ {
			c := l.At(j)
			if c.Editing {
				editing = true
			}
			if c.IsRoot() || c.IsResolved() {
				continue
			}
			if c.Data.LayoutStatus == comment.StatusDeleted && !showTrackedChanges {
				continue
			}
			replies++
		}

		switch {
		case editing:
			out[root.ID()] = "!"
		case replies > 0:
			out[root.ID()] = strconv.Itoa(replies)
		default:
			out[root.ID()] = ""
		}
	}
	return out
}
