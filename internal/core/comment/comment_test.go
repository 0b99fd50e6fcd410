package comment

import (
	"encoding/json"
	"testing"

	"github.com/colonyops/margin/internal/core/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestPayload_FlexFields(t *testing.T) {
	p := decode(t, `{"id": 12, "parent": 0, "resolved": true, "layoutStatus": 2, "tab": "3", "index": null}`)

	assert.Equal(t, "12", p.ID.String())
	assert.Equal(t, "0", p.Parent.String())
	assert.True(t, p.Resolved.Bool())
	n, ok := p.LayoutStatus.Int()
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.False(t, p.Index.Set())
}

func TestNormalize(t *testing.T) {
	t.Run("missing parent becomes root", func(t *testing.T) {
		d := Normalize(decode(t, `{"id": "1", "anchorPos": "10, 20, 30, 40"}`), NormalizeOptions{})

		assert.Equal(t, RootParent, d.Parent)
		assert.Equal(t, geom.Rect{X: 10, Y: 20, W: 30, H: 40}, d.Anchor)
		assert.Equal(t, "10,20,30,40", d.AnchorRaw)
		assert.Equal(t, -1, d.Part)
		assert.False(t, d.HasLayoutStatus)
	})

	t.Run("parentId used when parent is missing", func(t *testing.T) {
		d := Normalize(decode(t, `{"id": "2", "parentId": 1}`), NormalizeOptions{})

		assert.Equal(t, "1", d.Parent)
		assert.Equal(t, "1", d.ParentID)
	})

	t.Run("text range parsed", func(t *testing.T) {
		d := Normalize(decode(t, `{"id": "1", "parent": "0", "textRange": "1 2 3 4 5 6 7 8", "layoutStatus": "3"}`), NormalizeOptions{})

		assert.Len(t, d.Rectangles, 2)
		assert.Equal(t, StatusDeleted, d.LayoutStatus)
		assert.True(t, d.HasLayoutStatus)
	})

	t.Run("rectangle overrides anchor", func(t *testing.T) {
		d := Normalize(decode(t, `{"id": "1", "anchorPos": "1,1,1,1", "rectangle": "5,6,7,8", "tab": 2}`), NormalizeOptions{})

		assert.Equal(t, geom.Rect{X: 5, Y: 6, W: 7, H: 8}, d.Anchor)
		assert.Equal(t, 2, d.Part)
	})

	t.Run("file based view offsets part", func(t *testing.T) {
		opts := NormalizeOptions{PartYOffset: func(_ string, part int) int { return part * 1000 }}
		d := Normalize(decode(t, `{"id": "1", "anchorPos": "0,50,1,1", "part": 2, "textRange": "0,60,1,1"}`), opts)

		assert.Equal(t, 2050, d.Anchor.Y)
		assert.Equal(t, 2060, d.Rectangles[0].Y)
	})

	t.Run("cell range resolved", func(t *testing.T) {
		opts := NormalizeOptions{CellRect: func(string) (geom.Rect, bool) { return geom.Rect{X: 9, Y: 9, W: 1, H: 1}, true }}
		d := Normalize(decode(t, `{"id": "1", "cellRange": "A1"}`), opts)

		assert.Equal(t, geom.Rect{X: 9, Y: 9, W: 1, H: 1}, d.Anchor)
	})
}

func TestNormalizeRedline(t *testing.T) {
	d, err := NormalizeRedline(decode(t, `{"index": 7, "author": "ann", "comment": "Insert x", "textRange": "100, 200, 5, 5, 300, 400, 5, 5", "type": "Insert"}`))
	require.NoError(t, err)

	assert.Equal(t, "change-7", d.ID)
	assert.Equal(t, "7", d.ChangeIndex())
	assert.Equal(t, RootParent, d.Parent)
	assert.True(t, d.TrackChange)
	assert.Equal(t, geom.Rect{X: 100, Y: 200, W: 5, H: 5}, d.Anchor)
	assert.Equal(t, "Insert x", d.Text)

	_, err = NormalizeRedline(decode(t, `{"index": 8}`))
	require.ErrorIs(t, err, ErrMalformedRedline)
}

func TestOnlyAnchorChanged(t *testing.T) {
	base := decode(t, `{"id": "1", "author": "ann", "dateTime": "2024-01-01", "anchorPos": "1,2,3,4", "resolved": "false", "layoutStatus": 1}`)
	d := Normalize(base, NormalizeOptions{})

	moved := base
	moved.AnchorPos = "1, 9, 3, 4"
	assert.True(t, OnlyAnchorChanged(moved, d))

	same := base
	same.AnchorPos = " 1, 2, 3, 4"
	assert.False(t, OnlyAnchorChanged(same, d), "identical anchor is not a move")

	edited := moved
	edited.HTML = "<p>other</p>"
	assert.False(t, OnlyAnchorChanged(edited, d))

	resolved := moved
	resolved.Resolved = "true"
	assert.False(t, OnlyAnchorChanged(resolved, d))
}

func TestComment(t *testing.T) {
	c := New(Data{ID: "5", Parent: "3", Text: "server"})

	assert.Equal(t, "5", c.ID())
	assert.False(t, c.IsRoot())
	assert.False(t, c.IsNew())
	assert.Equal(t, "server", c.Text())

	c.Editing = true
	c.Draft = "local"
	assert.Equal(t, "local", c.Text())

	c.Parent = RootParent
	c.PendingParent = "3"
	c.SetData(Data{ID: "5", Parent: "4"})
	assert.Equal(t, "4", c.Parent)
	assert.Empty(t, c.PendingParent)
}

func TestLayoutStatus_String(t *testing.T) {
	assert.Equal(t, "DELETED", StatusDeleted.String())
	assert.Equal(t, "LayoutStatus(9)", LayoutStatus(9).String())
}
