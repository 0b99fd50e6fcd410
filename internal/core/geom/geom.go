// Package geom holds the coordinate types and unit conversions shared by the
// comment model and the layout engine.
//
// Three unit systems are in play: document twips (what the server sends),
// core pixels (device pixels at the current zoom) and CSS pixels (core pixels
// divided by the device pixel ratio).
package geom

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Point is a position in whatever unit the caller is working in.
type Point struct {
	X int
	Y int
}

// Rect is an axis aligned rectangle. X and Y are the top left corner.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Origin returns the top left corner of the rectangle.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// IsZero reports whether every component is zero.
func (r Rect) IsZero() bool { return r == Rect{} }

// String renders the rectangle the way the server encodes anchors: "x,y,w,h".
func (r Rect) String() string {
	return strconv.Itoa(r.X) + "," + strconv.Itoa(r.Y) + "," + strconv.Itoa(r.W) + "," + strconv.Itoa(r.H)
}

var intPattern = regexp.MustCompile(`-?\d+`)

// ParseRectangles extracts every integer from s and groups them into
// rectangles of four. Separators are ignored, so "1, 2, 3, 4; 5 6 7 8" and
// "1,2,3,4,5,6,7,8" decode to the same two rectangles. A trailing group with
// fewer than four numbers is dropped.
func ParseRectangles(s string) []Rect {
	matches := intPattern.FindAllString(s, -1)
	rects := make([]Rect, 0, len(matches)/4)
	for i := 0; i+3 < len(matches); i += 4 {
		var v [4]int
		for j := range v {
			n, err := strconv.Atoi(matches[i+j])
			if err != nil {
				// only possible on overflow
				n = 0
			}
			v[j] = n
		}
		rects = append(rects, Rect{X: v[0], Y: v[1], W: v[2], H: v[3]})
	}
	return rects
}

// ParseRectangle returns the first rectangle in s.
func ParseRectangle(s string) (Rect, bool) {
	rects := ParseRectangles(s)
	if len(rects) == 0 {
		return Rect{}, false
	}
	return rects[0], true
}

// CompactAnchor strips whitespace from an anchor string so two encodings of
// the same rectangle compare equal.
func CompactAnchor(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Converter translates between twips, core pixels and CSS pixels.
type Converter struct {
	TilePixels float64
	TileTwips  float64
	DPIScale   float64
}

// NewConverter builds a converter from the tile geometry and device pixel
// ratio. Non positive values fall back to a 1:1 tile ratio and a DPI scale of 1.
func NewConverter(tilePixels, tileTwips int, dpiScale float64) Converter {
	c := Converter{TilePixels: float64(tilePixels), TileTwips: float64(tileTwips), DPIScale: dpiScale}
	if c.TilePixels <= 0 || c.TileTwips <= 0 {
		c.TilePixels, c.TileTwips = 1, 1
	}
	if c.DPIScale <= 0 {
		c.DPIScale = 1
	}
	return c
}

func (c Converter) ratio() float64 { return c.TilePixels / c.TileTwips }

// TwipsToCore converts a twips length to core pixels.
func (c Converter) TwipsToCore(v int) int {
	return int(math.Round(float64(v) * c.ratio()))
}

// CoreToCSS converts core pixels to CSS pixels.
func (c Converter) CoreToCSS(v int) int {
	return int(math.Round(float64(v) / c.DPIScale))
}

// CSSToCore converts CSS pixels to core pixels.
func (c Converter) CSSToCore(v int) int {
	return int(math.Round(float64(v) * c.DPIScale))
}

// PointToCore converts a twips point to core pixels.
func (c Converter) PointToCore(p Point) Point {
	return Point{X: c.TwipsToCore(p.X), Y: c.TwipsToCore(p.Y)}
}

// RectToCore converts a twips rectangle to core pixels.
func (c Converter) RectToCore(r Rect) Rect {
	return Rect{X: c.TwipsToCore(r.X), Y: c.TwipsToCore(r.Y), W: c.TwipsToCore(r.W), H: c.TwipsToCore(r.H)}
}

// ScrollDelta returns how far the viewport must move vertically so that the
// span [top, bottom] is visible inside [screenTop, screenBottom]. Zero means
// the span is already inside. All four values share one unit.
func ScrollDelta(top, bottom, screenTop, screenBottom int) int {
	switch {
	case top < screenTop:
		return top - screenTop
	case bottom > screenBottom:
		return bottom - screenBottom
	default:
		return 0
	}
}

// Abs returns the absolute value of v.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
