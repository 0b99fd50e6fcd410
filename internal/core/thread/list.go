// Package thread keeps the ordered comment list and the parent/child
// relationships between its entries.
//
// Positional queries (RootIndexOf, LastChildIndexOf and friends) rely on the
// list being in thread order: every root is followed by its descendants in
// depth first order. Order restores that after any insertion.
package thread

import (
	"errors"
	"slices"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when an id is not in the list.
var ErrNotFound = errors.New("comment not found")

// List is the ordered set of comments shown in the margin. It is not safe for
// concurrent use; the owning section serializes access.
type List struct {
	items    []*comment.Comment
	index    map[string]int
	children map[string][]string
	log      zerolog.Logger
}

// New creates an empty list.
func New(logger zerolog.Logger) *List {
	return &List{
		index:    make(map[string]int),
		children: make(map[string][]string),
		log:      logger,
	}
}

// Len returns the number of comments.
func (l *List) Len() int { return len(l.items) }

// At returns the comment at position i, or nil when i is out of range.
func (l *List) At(i int) *comment.Comment {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Items returns a copy of the list in its current order.
func (l *List) Items() []*comment.Comment {
	return slices.Clone(l.items)
}

// IndexOf returns the position of id, or -1.
func (l *List) IndexOf(id string) int {
	i, ok := l.index[id]
	if !ok {
		return -1
	}
	return i
}

// Get returns the comment with the given id, or nil.
func (l *List) Get(id string) *comment.Comment {
	return l.At(l.IndexOf(id))
}

// Lookup is Get with an error for missing ids.
func (l *List) Lookup(id string) (*comment.Comment, error) {
	c := l.Get(id)
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Contains reports whether id is in the list.
func (l *List) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Append adds c to the end of the list. Callers re-establish thread order
// with Order once they are done inserting.
func (l *List) Append(c *comment.Comment) {
	l.items = append(l.items, c)
	l.index[c.ID()] = len(l.items) - 1
}

// Remove deletes id from the list without touching its relatives. Use
// Detach first when the comment may have a parent or children.
func (l *List) Remove(id string) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	delete(l.children, id)
	l.reindex()
	return true
}

// RemoveFunc deletes every comment for which fn returns true and reports how
// many were removed.
func (l *List) RemoveFunc(fn func(*comment.Comment) bool) int {
	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(c *comment.Comment) bool {
		if fn(c) {
			delete(l.children, c.ID())
			return true
		}
		return false
	})
	l.reindex()
	return before - len(l.items)
}

// Clear empties the list.
func (l *List) Clear() {
	l.items = nil
	clear(l.index)
	clear(l.children)
}

// Children returns the ids of the direct children of id in insertion order.
func (l *List) Children(id string) []string {
	return slices.Clone(l.children[id])
}

// HasChildren reports whether id has direct children.
func (l *List) HasChildren(id string) bool {
	return len(l.children[id]) > 0
}

func (l *List) reindex() {
	clear(l.index)
	for i, c := range l.items {
		l.index[c.ID()] = i
	}
}

// RootIndexOf returns the position of the root of the thread containing id,
// or -1 when id is unknown.
func (l *List) RootIndexOf(id string) int {
	i := l.IndexOf(id)
	for i > 0 && !l.items[i].IsRoot() {
		i--
	}
	return i
}

// SubRootIndexOf returns the position of the nearest comment at or before id
// that is either id's effective parent or a root. It is -1 when id is
// unknown.
func (l *List) SubRootIndexOf(id string) int {
	i := l.IndexOf(id)
	if i < 0 {
		return -1
	}
	parent := l.items[i].Parent
	for i > 0 && l.items[i].ID() != parent && !l.items[i].IsRoot() {
		i--
	}
	return i
}

// LastChildIndexOf returns the position of the last comment in the thread
// containing id, or -1 when id is unknown.
func (l *List) LastChildIndexOf(id string) int {
	i := l.RootIndexOf(id)
	if i < 0 {
		return -1
	}
	for i+1 < len(l.items) && !l.items[i+1].IsRoot() {
		i++
	}
	return i
}

// Thread returns the comments of the thread containing id, root first.
func (l *List) Thread(id string) []*comment.Comment {
	start := l.RootIndexOf(id)
	if start < 0 {
		return nil
	}
	end := l.LastChildIndexOf(id)
	return slices.Clone(l.items[start : end+1])
}

// Ancestors returns the effective parent chain of id, nearest first. The
// walk stops at the first missing parent.
func (l *List) Ancestors(id string) []*comment.Comment {
	var out []*comment.Comment
	c := l.Get(id)
	seen := map[string]bool{id: true}
	for c != nil && !c.IsRoot() {
		p := l.Get(c.Parent)
		if p == nil || seen[p.ID()] {
			break
		}
		seen[p.ID()] = true
		out = append(out, p)
		c = p
	}
	return out
}

// AttachToParent links a newly added comment to its parent. When the parent
// is not in the list yet the comment becomes a root that remembers the
// parent it is waiting for. In both cases any comments already waiting for c
// are attached to it.
func (l *List) AttachToParent(c *comment.Comment) {
	if c.Data.Parent != comment.RootParent {
		if l.Contains(c.Data.Parent) {
			c.Parent = c.Data.Parent
			c.PendingParent = ""
			l.addChild(c.Data.Parent, c.ID())
		} else {
			c.Parent = comment.RootParent
			c.PendingParent = c.Data.Parent
			logging.CommentEvent(l.log.Warn(), c.ID(), c.Data.Parent).
				Msg("parent comment not found, treating as root until it arrives")
		}
	}

	l.adoptWaiting(c)
}

// adoptWaiting attaches every comment whose pending parent is c.
func (l *List) adoptWaiting(c *comment.Comment) {
	for _, other := range l.items {
		if other == c || other.PendingParent != c.ID() {
			continue
		}
		other.Parent = c.ID()
		other.PendingParent = ""
		l.addChild(c.ID(), other.ID())
	}
}

func (l *List) addChild(parent, child string) {
	if slices.Contains(l.children[parent], child) {
		return
	}
	l.children[parent] = append(l.children[parent], child)
}

// Detach removes c from its parent's children and promotes c's direct
// children to roots.
func (l *List) Detach(c *comment.Comment) {
	if !c.IsRoot() {
		l.unlinkChild(c.Parent, c.ID())
	}

	for _, childID := range l.children[c.ID()] {
		if child := l.Get(childID); child != nil {
			child.Parent = comment.RootParent
		}
	}
	delete(l.children, c.ID())
}

// Reparent moves c under a new effective parent, detaching it from the old
// one. An empty or root parent makes c a root.
func (l *List) Reparent(c *comment.Comment, parent string) {
	if !c.IsRoot() {
		l.unlinkChild(c.Parent, c.ID())
	}
	if parent == "" || parent == comment.RootParent || !l.Contains(parent) {
		c.Parent = comment.RootParent
		return
	}
	c.Parent = parent
	l.addChild(parent, c.ID())
}

func (l *List) unlinkChild(parent, child string) {
	kids := slices.DeleteFunc(l.children[parent], func(id string) bool { return id == child })
	if len(kids) == 0 {
		delete(l.children, parent)
		return
	}
	l.children[parent] = kids
}

// GroupChildren rebuilds the adjacency from each comment's effective parent
// in list order. A comment whose parent is missing becomes a waiting root.
func (l *List) GroupChildren() {
	clear(l.children)
	for _, c := range l.items {
		if c.IsRoot() {
			continue
		}
		if !l.Contains(c.Parent) {
			logging.CommentEvent(l.log.Warn(), c.ID(), c.Parent).
				Msg("parent comment not found while grouping, treating as root")
			c.PendingParent = c.Parent
			c.Parent = comment.RootParent
			continue
		}
		l.addChild(c.Parent, c.ID())
	}
}

// SortByAnchor stably sorts the list by anchor Y, then anchor X, comparing
// absolute values.
func (l *List) SortByAnchor() {
	slices.SortStableFunc(l.items, func(a, b *comment.Comment) int {
		ay, by := geom.Abs(a.Data.Anchor.Y), geom.Abs(b.Data.Anchor.Y)
		if ay != by {
			return ay - by
		}
		return geom.Abs(a.Data.Anchor.X) - geom.Abs(b.Data.Anchor.X)
	})
	l.reindex()
}

// OrderThreads rearranges the list so each root is followed by its
// descendants in depth first order, children in adjacency order. Roots keep
// their relative order. Comments unreachable from any root (which only a
// parent cycle can produce) are appended as roots.
func (l *List) OrderThreads() {
	ordered := make([]*comment.Comment, 0, len(l.items))
	visited := make(map[string]bool, len(l.items))

	var visit func(c *comment.Comment)
	visit = func(c *comment.Comment) {
		if visited[c.ID()] {
			return
		}
		visited[c.ID()] = true
		ordered = append(ordered, c)
		for _, childID := range l.children[c.ID()] {
			if child := l.Get(childID); child != nil {
				visit(child)
			}
		}
	}

	for _, c := range l.items {
		if c.IsRoot() {
			visit(c)
		}
	}

	for _, c := range l.items {
		if visited[c.ID()] {
			continue
		}
		logging.CommentEvent(l.log.Warn(), c.ID(), "").Msg("comment unreachable from any root, promoting")
		l.unlinkChild(c.Parent, c.ID())
		c.Parent = comment.RootParent
		visit(c)
	}

	l.items = ordered
	l.reindex()
}

// Order sorts by anchor and then restores thread order. When regroup is set
// the adjacency is rebuilt from effective parents first.
func (l *List) Order(regroup bool) {
	l.SortByAnchor()
	if regroup {
		l.GroupChildren()
	}
	l.OrderThreads()
}
