// Package comment defines the comment model: the payload the server sends,
// the normalized data the rest of the system reads, and the per comment view
// state the margin tracks.
package comment

import (
	"errors"
	"strconv"
	"strings"

	"github.com/colonyops/margin/internal/core/geom"
)

const (
	// NewID is the id of the single unsaved draft comment.
	NewID = "new"
	// RootParent is the parent id carried by root comments.
	RootParent = "0"
	// ChangePrefix prefixes the ids of comments synthesized from tracked changes.
	ChangePrefix = "change-"
)

// ErrMalformedRedline is returned when a tracked change has no text range.
var ErrMalformedRedline = errors.New("redline has no text range")

// Payload is a comment or tracked change exactly as the server encodes it.
// Tracked changes reuse the type: Index, Type and Comment are only set for them.
type Payload struct {
	Action       Action `json:"action,omitempty"`
	ID           Flex   `json:"id"`
	Parent       Flex   `json:"parent,omitempty"`
	ParentID     Flex   `json:"parentId,omitempty"`
	Author       string `json:"author,omitempty"`
	DateTime     string `json:"dateTime,omitempty"`
	Text         string `json:"text,omitempty"`
	HTML         string `json:"html,omitempty"`
	AnchorPos    string `json:"anchorPos,omitempty"`
	TextRange    string `json:"textRange,omitempty"`
	Rectangle    string `json:"rectangle,omitempty"`
	CellRange    string `json:"cellRange,omitempty"`
	Resolved     Flex   `json:"resolved,omitempty"`
	LayoutStatus Flex   `json:"layoutStatus,omitempty"`
	Tab          Flex   `json:"tab,omitempty"`
	Part         Flex   `json:"part,omitempty"`
	PartHash     string `json:"parthash,omitempty"`
	Index        Flex   `json:"index,omitempty"`
	Type         string `json:"type,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Data is the normalized view of a payload.
type Data struct {
	ID string
	// Parent is the parent id as sent by the server, "0" for roots. It is
	// never rewritten locally, see Comment.Parent for the effective parent.
	Parent string
	// ParentID is the raw parentId field, kept for change detection.
	ParentID string
	Author   string
	DateTime string
	Text     string
	HTML     string

	// AnchorRaw is the anchor as received with whitespace removed.
	AnchorRaw  string
	Anchor     geom.Rect
	TextRange  string
	Rectangles []geom.Rect
	CellRange  string

	Resolved        string
	LayoutStatus    LayoutStatus
	HasLayoutStatus bool

	// Part is the tab or slide index, -1 when the server sent none.
	Part     int
	PartHash string

	TrackChange bool
	ChangeType  string

	Avatar string
	Color  string
}

// IsResolved reports whether the comment is resolved.
func (d Data) IsResolved() bool { return d.Resolved == "true" }

// ChangeIndex returns the tracked change index encoded in a change- id.
func (d Data) ChangeIndex() string { return strings.TrimPrefix(d.ID, ChangePrefix) }

// NormalizeOptions carries the document facts needed to normalize a payload.
type NormalizeOptions struct {
	// PartYOffset returns the vertical twips offset of a part in file based
	// views. Nil disables the adjustment.
	PartYOffset func(partHash string, part int) int
	// CellRect resolves a spreadsheet cell range to a twips rectangle.
	CellRect func(cellRange string) (geom.Rect, bool)
}

// Normalize converts a server comment payload to Data. Missing parents
// become roots and anchor strings are parsed into rectangles.
func Normalize(p Payload, opts NormalizeOptions) Data {
	d := Data{
		ID:        p.ID.String(),
		Parent:    p.Parent.String(),
		ParentID:  p.ParentID.String(),
		Author:    p.Author,
		DateTime:  p.DateTime,
		Text:      p.Text,
		HTML:      p.HTML,
		AnchorRaw: geom.CompactAnchor(p.AnchorPos),
		TextRange: p.TextRange,
		CellRange: p.CellRange,
		Resolved:  p.Resolved.String(),
		Part:      -1,
		PartHash:  p.PartHash,
	}

	if d.Parent == "" {
		d.Parent = d.ParentID
	}
	if d.Parent == "" {
		d.Parent = RootParent
	}

	if status, ok := p.LayoutStatus.Int(); ok {
		d.LayoutStatus = LayoutStatus(status)
		d.HasLayoutStatus = true
	}

	if part, ok := p.Tab.Int(); ok {
		d.Part = part
	} else if part, ok := p.Part.Int(); ok {
		d.Part = part
	}

	if r, ok := geom.ParseRectangle(p.AnchorPos); ok {
		d.Anchor = r
	}
	if p.TextRange != "" {
		d.Rectangles = geom.ParseRectangles(p.TextRange)
	}
	if p.Rectangle != "" {
		if r, ok := geom.ParseRectangle(p.Rectangle); ok {
			d.Anchor = r
			d.Rectangles = []geom.Rect{r}
		}
	}
	if p.CellRange != "" && opts.CellRect != nil {
		if r, ok := opts.CellRect(p.CellRange); ok {
			d.Anchor = r
			d.Rectangles = []geom.Rect{r}
		}
	}

	if opts.PartYOffset != nil && (d.PartHash != "" || d.Part >= 0) {
		offset := opts.PartYOffset(d.PartHash, d.Part)
		d.Anchor.Y += offset
		for i := range d.Rectangles {
			d.Rectangles[i].Y += offset
		}
	}

	return d
}

// NormalizeRedline converts a tracked change payload to a root comment whose
// id is "change-" followed by the change index. The change's first text range
// rectangle becomes the anchor.
func NormalizeRedline(p Payload) (Data, error) {
	if p.TextRange == "" {
		return Data{}, ErrMalformedRedline
	}

	rects := geom.ParseRectangles(p.TextRange)
	if len(rects) == 0 {
		return Data{}, ErrMalformedRedline
	}

	index := p.Index.String()
	if index == "" {
		index = p.ID.String()
	}

	d := Data{
		ID:          ChangePrefix + index,
		Parent:      RootParent,
		Author:      p.Author,
		DateTime:    p.DateTime,
		Text:        p.Comment,
		AnchorRaw:   rects[0].String(),
		Anchor:      rects[0],
		TextRange:   p.TextRange,
		Rectangles:  rects,
		Part:        -1,
		TrackChange: true,
		ChangeType:  p.Type,
	}
	return d, nil
}

// OnlyAnchorChanged reports whether the incoming payload differs from d in
// its anchor position and in nothing else that is visible to the user.
func OnlyAnchorChanged(p Payload, d Data) bool {
	status := ""
	if d.HasLayoutStatus {
		status = strconv.Itoa(int(d.LayoutStatus))
	}

	return p.Author == d.Author &&
		p.DateTime == d.DateTime &&
		p.HTML == d.HTML &&
		p.LayoutStatus.String() == status &&
		p.ParentID.String() == d.ParentID &&
		p.Resolved.String() == d.Resolved &&
		p.TextRange == d.TextRange &&
		geom.CompactAnchor(p.AnchorPos) != d.AnchorRaw
}

// Comment is one entry in the margin: server data plus local view state.
type Comment struct {
	Data Data

	// Parent is the effective thread parent used for traversal. It starts as
	// Data.Parent and is rewritten when the parent is missing or removed.
	Parent string
	// PendingParent names a parent that has not arrived yet. The comment is
	// treated as a root until it does.
	PendingParent string

	Editing     bool
	Highlighted bool
	Active      bool
	PoppedOut   bool
	Collapsed   bool
	Hidden      bool
	// PendingInit is set while a freshly inserted draft has not been shown.
	PendingInit bool
	// SelfRemoved marks a comment the local user deleted or resolved, so the
	// echo from the server does not raise a conflict.
	SelfRemoved bool

	// Draft holds the local edit of Data.Text while Editing.
	Draft string
	// Reply holds an unsent reply typed under the comment.
	Reply string
	// AutoSaved is set once an autosave of the draft has been sent.
	AutoSaved bool
	// Unedited and UneditedHTML hold the server body from before the first
	// autosave, so cancelling the edit can restore it.
	Unedited     string
	UneditedHTML string
}

// New creates a comment from normalized data.
func New(d Data) *Comment {
	return &Comment{Data: d, Parent: d.Parent}
}

// ID returns the comment id.
func (c *Comment) ID() string { return c.Data.ID }

// IsRoot reports whether the comment is the head of a thread.
func (c *Comment) IsRoot() bool { return c.Parent == RootParent }

// IsNew reports whether the comment is the unsaved draft.
func (c *Comment) IsNew() bool { return c.Data.ID == NewID }

// IsResolved reports whether the comment is resolved.
func (c *Comment) IsResolved() bool { return c.Data.IsResolved() }

// IsTrackedChange reports whether the comment was synthesized from a redline.
func (c *Comment) IsTrackedChange() bool { return c.Data.TrackChange }

// Text returns the draft while editing and the server text otherwise.
func (c *Comment) Text() string {
	if c.Editing {
		return c.Draft
	}
	return c.Data.Text
}

// SetData replaces the server data and resets the effective parent.
func (c *Comment) SetData(d Data) {
	c.Data = d
	c.Parent = d.Parent
	c.PendingParent = ""
}
