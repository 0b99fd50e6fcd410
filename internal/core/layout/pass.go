package layout

import (
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/thread"
)

// pass holds the working state of one Compute call.
type pass struct {
	engine  *Engine
	list    *thread.List
	measure Measurer
	vp      Viewport
	st      State
	res     *Result
	marginY int
}

func (p *pass) anchorY(c *comment.Comment) int {
	return p.engine.conv.TwipsToCore(c.Data.Anchor.Y) - p.vp.DocumentTop
}

func (p *pass) place(c *comment.Comment, x, y int) {
	p.res.Placements = append(p.res.Placements, Placement{ID: c.ID(), X: x, Y: p.engine.conv.CoreToCSS(y)})
}

// loopDown lays out every thread from start to the end of the list, each
// thread as one contiguous block. It returns the y below the last block.
func (p *pass) loopDown(start, x, startY int) int {
	n := p.list.Len()
	for i := start; i < n; {
		var run []*comment.Comment
		j := i
		for {
			if c := p.list.At(j); p.engine.Visible(c, p.st) {
				run = append(run, c)
			}
			j++
			if j >= n || p.list.At(j).IsRoot() {
				break
			}
		}

		if len(run) > 0 {
			startY = p.layoutDown(run, x, startY)
			startY += p.marginY
		}
		i = j
	}
	return startY
}

func (p *pass) layoutDown(run []*comment.Comment, x, lastY int) int {
	conv := p.engine.conv
	selected := p.st.Selected != "" && run[0].ID() == p.st.Selected && p.engine.behavior.SupportsPopOut()

	for _, c := range run {
		m := p.measure.Measure(c.ID())
		if y := p.anchorY(c); y > lastY {
			lastY = y
		}

		posX := conv.CoreToCSS(x)
		if selected {
			if p.st.ShowBigger {
				posX = (p.vp.ContainerWidth - m.Width) / 2
			} else if p.vp.RTL {
				posX += p.st.Deflection
			} else {
				posX -= p.st.Deflection
			}
		}

		p.place(c, posX, lastY)
		lastY += conv.CSSToCore(m.Height)
	}
	return lastY
}

// loopUp lays out the comments above start, nearest first, stacking each
// run upward from startY. A run only continues while the comment above is
// a direct reply of the one below it, so siblings are stacked apart.
func (p *pass) loopUp(start, x, startY int) {
	startY -= p.marginY
	for i := start; i >= 0; {
		var run []*comment.Comment
		j := i
		for {
			c := p.list.At(j)
			if p.engine.Visible(c, p.st) {
				run = append(run, c)
			}
			j--
			if j < 0 || p.list.At(j).Parent != c.ID() {
				break
			}
		}

		if len(run) > 0 {
			startY = p.layoutUp(run, x, startY)
			startY -= p.marginY
		}
		i = j
	}
}

// layoutUp places a run given bottom first. A comment sits at its anchor if
// it fits above lastY, otherwise directly above the previous one.
func (p *pass) layoutUp(run []*comment.Comment, x, lastY int) int {
	conv := p.engine.conv
	for _, c := range run {
		h := conv.CSSToCore(p.measure.Measure(c.ID()).Height)
		if y := p.anchorY(c); y+h < lastY {
			lastY = y
		} else {
			lastY -= h
		}
		p.place(c, conv.CoreToCSS(x), lastY)
	}
	return lastY
}

// resize caps each comment's content height by the room left before the
// next comment in list order.
func (p *pass) resize() {
	s := p.engine.settings
	pos := make(map[string]int, len(p.res.Placements))
	for i, pl := range p.res.Placements {
		pos[pl.ID] = i
	}

	for i := 0; i < p.list.Len(); i++ {
		c := p.list.At(i)
		idx, ok := pos[c.ID()]
		if !ok || c.Editing {
			continue
		}

		m := p.measure.Measure(c.ID())
		actual := m.ContentHeight
		if actual <= s.MinHeight {
			continue
		}
		if actual > s.MaxHeight {
			actual = s.MaxHeight
		}

		maxSize := s.MaxHeight
		if next := p.list.At(i + 1); next != nil {
			nextIdx, ok := pos[next.ID()]
			if !ok {
				continue
			}
			cur := &p.res.Placements[idx]
			maxSize = p.res.Placements[nextIdx].Y - cur.Y - m.HeaderHeight - 3*s.MarginY - 2
			if maxSize > s.MaxHeight {
				maxSize = s.MaxHeight
			} else if s.GrowUp && actual > maxSize {
				maxSize += p.growUp(i, cur, actual-maxSize, pos)
			}
		}

		if maxSize > s.MinHeight {
			p.res.MaxHeights[c.ID()] = maxSize
		}
	}
}

// growUp moves cur up into free space above it, by at most want pixels, and
// returns how far it moved. The first comment may use the room up to the
// top of the document.
func (p *pass) growUp(i int, cur *Placement, want int, pos map[string]int) int {
	space := cur.Y + p.engine.conv.CoreToCSS(p.vp.DocumentTop)
	if prev := p.list.At(i - 1); prev != nil {
		prevIdx, ok := pos[prev.ID()]
		if !ok {
			return 0
		}
		pp := p.res.Placements[prevIdx]
		space = cur.Y - (pp.Y + p.measure.Measure(prev.ID()).Height + p.engine.settings.MarginY)
	}
	if space <= 0 {
		return 0
	}

	move := min(want, space)
	cur.Y -= move
	return move
}
