package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRectangles(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Rect
	}{
		{name: "single", in: "1, 2, 3, 4", want: []Rect{{1, 2, 3, 4}}},
		{name: "mixed separators", in: "1,2,3,4; 5 6 7 8", want: []Rect{{1, 2, 3, 4}, {5, 6, 7, 8}}},
		{name: "trailing partial dropped", in: "1 2 3 4 5 6", want: []Rect{{1, 2, 3, 4}}},
		{name: "negative values", in: "-10, 20, 30, 40", want: []Rect{{-10, 20, 30, 40}}},
		{name: "empty", in: "", want: []Rect{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRectangles(tt.in))
		})
	}
}

func TestParseRectangle(t *testing.T) {
	r, ok := ParseRectangle("100, 200, 10, 20")
	require.True(t, ok)
	assert.Equal(t, Point{X: 100, Y: 200}, r.Origin())
	assert.Equal(t, "100,200,10,20", r.String())

	_, ok = ParseRectangle("1 2")
	assert.False(t, ok)
}

func TestCompactAnchor(t *testing.T) {
	assert.Equal(t, "1,2,3,4", CompactAnchor(" 1, 2,\t3 ,4 "))
}

func TestConverter(t *testing.T) {
	c := NewConverter(256, 3840, 2)

	assert.Equal(t, 100, c.TwipsToCore(1500))
	assert.Equal(t, 50, c.CoreToCSS(100))
	assert.Equal(t, 200, c.CSSToCore(100))
	assert.Equal(t, Point{X: 100, Y: 200}, c.PointToCore(Point{X: 1500, Y: 3000}))
	assert.Equal(t, Rect{X: 100, Y: 100, W: 0, H: 0}, c.RectToCore(Rect{X: 1500, Y: 1500}))
}

func TestNewConverter_Defaults(t *testing.T) {
	c := NewConverter(0, 0, 0)
	assert.Equal(t, 42, c.TwipsToCore(42))
	assert.Equal(t, 42, c.CoreToCSS(42))
}

func TestScrollDelta(t *testing.T) {
	tests := []struct {
		name                  string
		top, bottom, sTop, sB int
		want                  int
	}{
		{name: "inside", top: 100, bottom: 200, sTop: 50, sB: 300, want: 0},
		{name: "above", top: 10, bottom: 60, sTop: 50, sB: 300, want: -40},
		{name: "below", top: 280, bottom: 340, sTop: 50, sB: 300, want: 40},
		{name: "exact fit", top: 50, bottom: 300, sTop: 50, sB: 300, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrollDelta(tt.top, tt.bottom, tt.sTop, tt.sB))
		})
	}
}
