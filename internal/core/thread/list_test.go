package thread

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComment(id, parent string, y int) *comment.Comment {
	return comment.New(comment.Data{
		ID:     id,
		Parent: parent,
		Anchor: geom.Rect{X: 10, Y: y},
	})
}

// add mirrors what the section does for an Add event.
func add(l *List, c *comment.Comment) {
	l.Append(c)
	l.AttachToParent(c)
	l.Order(true)
}

func ids(l *List) []string {
	out := make([]string, 0, l.Len())
	for _, c := range l.Items() {
		out = append(out, c.ID())
	}
	return out
}

func assertIndexConsistent(t *testing.T, l *List) {
	t.Helper()
	for i, c := range l.Items() {
		assert.Equal(t, i, l.IndexOf(c.ID()), "index of %s", c.ID())
	}
}

func TestList_IndexConsistency(t *testing.T) {
	l := New(zerolog.Nop())
	rng := rand.New(rand.NewPCG(1, 2))

	live := map[string]bool{}
	for step := range 200 {
		id := strconv.Itoa(rng.IntN(30))
		switch {
		case live[id] && step%3 == 0:
			require.True(t, l.Remove(id))
			delete(live, id)
			assert.Equal(t, -1, l.IndexOf(id))
		case !live[id]:
			l.Append(newComment(id, comment.RootParent, rng.IntN(1000)))
			live[id] = true
		default:
			l.SortByAnchor()
		}
		assertIndexConsistent(t, l)
	}
}

func TestList_BasicThread(t *testing.T) {
	l := New(zerolog.Nop())
	a := newComment("A", comment.RootParent, 100)
	b := newComment("B", "A", 100)
	c := newComment("C", "B", 100)

	add(l, a)
	add(l, b)
	add(l, c)

	assert.Equal(t, []string{"A", "B", "C"}, ids(l))
	assert.Equal(t, l.IndexOf("A"), l.RootIndexOf("C"))
	assert.Equal(t, []string{"B"}, l.Children("A"))
	assert.Equal(t, []string{"C"}, l.Children("B"))
	assert.Equal(t, 2, l.LastChildIndexOf("A"))
}

func TestList_ThreadOrderInvariant(t *testing.T) {
	l := New(zerolog.Nop())
	// Arrival order interleaves two threads and a reply whose anchor sorts
	// before its parent.
	for _, c := range []*comment.Comment{
		newComment("r2", comment.RootParent, 500),
		newComment("c1", "r1", 50),
		newComment("r1", comment.RootParent, 100),
		newComment("c2", "r2", 500),
		newComment("g1", "c1", 10),
		newComment("c3", "r1", 120),
	} {
		l.Append(c)
	}
	l.Order(true)

	assert.Equal(t, []string{"r1", "c1", "g1", "c3", "r2", "c2"}, ids(l))

	for i, c := range l.Items() {
		if c.IsRoot() {
			continue
		}
		assert.Less(t, l.IndexOf(c.Parent), i, "%s must follow its parent", c.ID())
	}
	assertIndexConsistent(t, l)
}

func TestList_RootIndexIdempotent(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("A", comment.RootParent, 100))
	add(l, newComment("B", "A", 100))
	add(l, newComment("C", "B", 100))
	add(l, newComment("D", comment.RootParent, 200))

	for _, c := range l.Items() {
		once := l.RootIndexOf(c.ID())
		twice := l.RootIndexOf(l.At(once).ID())
		assert.Equal(t, once, twice)
	}
	assert.Equal(t, -1, l.RootIndexOf("missing"))
}

func TestList_OutOfOrderConvergence(t *testing.T) {
	build := func(order ...*comment.Comment) *List {
		l := New(zerolog.Nop())
		for _, c := range order {
			add(l, c)
		}
		return l
	}

	parentFirst := build(newComment("P1", comment.RootParent, 100), newComment("X", "P1", 100))
	childFirst := build(newComment("X", "P1", 100), newComment("P1", comment.RootParent, 100))

	assert.Equal(t, parentFirst.Children("P1"), childFirst.Children("P1"))
	assert.Equal(t, ids(parentFirst), ids(childFirst))
}

func TestList_ResurrectionOrder(t *testing.T) {
	l := New(zerolog.Nop())
	x := newComment("X", "P1", 100)

	add(l, x)
	assert.True(t, x.IsRoot())
	assert.Equal(t, "P1", x.PendingParent)
	assert.Equal(t, "P1", x.Data.Parent, "wire parent is kept")

	add(l, newComment("P1", comment.RootParent, 100))
	assert.Equal(t, []string{"X"}, l.Children("P1"))
	assert.False(t, x.IsRoot())
	assert.Empty(t, x.PendingParent)
	assert.Equal(t, []string{"P1", "X"}, ids(l))
}

func TestList_RemovalPromotesChildren(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("1", comment.RootParent, 100))
	add(l, newComment("2", "1", 100))
	add(l, newComment("3", "2", 100))

	c := l.Get("2")
	l.Detach(c)
	require.True(t, l.Remove("2"))
	l.Order(true)

	assert.Equal(t, l.IndexOf("3"), l.RootIndexOf("3"))
	assert.Empty(t, l.Children("1"))
	assertIndexConsistent(t, l)
}

func TestList_OrphanPromotionKeepsSubtrees(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("r", comment.RootParent, 100))
	add(l, newComment("a", "r", 100))
	add(l, newComment("a1", "a", 100))
	add(l, newComment("b", "r", 100))
	add(l, newComment("b1", "b", 100))

	roots := func() int {
		n := 0
		for _, c := range l.Items() {
			if c.IsRoot() {
				n++
			}
		}
		return n
	}
	before := roots()

	l.Detach(l.Get("r"))
	l.Remove("r")
	l.Order(true)

	assert.Equal(t, before+1, roots(), "two children promoted, one root removed")
	assert.Equal(t, []string{"a1"}, l.Children("a"))
	assert.Equal(t, []string{"b1"}, l.Children("b"))
}

func TestList_RemoveMissingParentIsSilent(t *testing.T) {
	l := New(zerolog.Nop())
	c := newComment("x", "gone", 100)
	l.Append(c)
	c.Parent = "gone"

	assert.NotPanics(t, func() { l.Detach(c) })
	assert.True(t, l.Remove("x"))
	assert.Equal(t, 0, l.Len())
}

func TestList_GroupChildrenMissingParent(t *testing.T) {
	l := New(zerolog.Nop())
	orphan := newComment("o", "nope", 100)
	l.Append(orphan)

	l.Order(true)

	assert.True(t, orphan.IsRoot())
	assert.Equal(t, "nope", orphan.PendingParent)
}

func TestList_Reparent(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("r", comment.RootParent, 100))
	add(l, newComment("c", "r", 100))

	c := l.Get("c")
	l.Reparent(c, comment.RootParent)
	assert.True(t, c.IsRoot())
	assert.Empty(t, l.Children("r"))
}

func TestList_SortByAnchorUsesAbsoluteValues(t *testing.T) {
	l := New(zerolog.Nop())
	l.Append(comment.New(comment.Data{ID: "far", Parent: "0", Anchor: geom.Rect{X: 0, Y: -300}}))
	l.Append(comment.New(comment.Data{ID: "right", Parent: "0", Anchor: geom.Rect{X: 50, Y: 100}}))
	l.Append(comment.New(comment.Data{ID: "left", Parent: "0", Anchor: geom.Rect{X: -10, Y: 100}}))

	l.SortByAnchor()

	assert.Equal(t, []string{"left", "right", "far"}, ids(l))
}

func TestList_Ancestors(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("A", comment.RootParent, 100))
	add(l, newComment("B", "A", 100))
	add(l, newComment("C", "B", 100))

	var got []string
	for _, c := range l.Ancestors("C") {
		got = append(got, c.ID())
	}
	assert.Equal(t, []string{"B", "A"}, got)
	assert.Len(t, l.Thread("B"), 3)
}

func TestList_Resolution(t *testing.T) {
	l := New(zerolog.Nop())
	add(l, newComment("A", comment.RootParent, 100))
	add(l, newComment("B", "A", 100))
	add(l, newComment("solo", comment.RootParent, 200))

	assert.Equal(t, Unresolved, l.Resolution("A"))

	l.Get("A").Data.Resolved = "true"
	assert.Equal(t, Unresolved, l.Resolution("B"))

	l.Get("B").Data.Resolved = "true"
	assert.Equal(t, Resolved, l.Resolution("B"))

	assert.Equal(t, Unresolved, l.Resolution("solo"))
	l.Get("solo").Data.Resolved = "true"
	assert.Equal(t, Resolved, l.Resolution("solo"))

	assert.Equal(t, Indeterminate, l.Resolution("missing"))
}
