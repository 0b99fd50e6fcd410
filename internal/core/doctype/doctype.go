// Package doctype captures everything that differs between document types so
// the rest of the margin can ask a Behavior instead of branching on a name.
package doctype

import (
	"fmt"
	"strings"

	"github.com/colonyops/margin/internal/core/thread"
)

// Kind names a document type.
type Kind string

const (
	Text         Kind = "text"
	Spreadsheet  Kind = "spreadsheet"
	Presentation Kind = "presentation"
	Drawing      Kind = "drawing"
)

// Kinds lists every supported document type.
var Kinds = []Kind{Text, Spreadsheet, Presentation, Drawing}

// Parse returns the Kind named by s.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// Op is a logical user operation that maps to a server command.
type Op int

const (
	OpInsert Op = iota
	OpEdit
	OpEditTrackedChange
	OpReply
	OpDelete
	OpDeleteThread
	OpResolve
	OpResolveThread
	OpPromote
	OpAcceptChange
	OpRejectChange
)

var opNames = map[Op]string{
	OpInsert:            "insert",
	OpEdit:              "edit",
	OpEditTrackedChange: "edit-tracked-change",
	OpReply:             "reply",
	OpDelete:            "delete",
	OpDeleteThread:      "delete-thread",
	OpResolve:           "resolve",
	OpResolveThread:     "resolve-thread",
	OpPromote:           "promote",
	OpAcceptChange:      "accept-change",
	OpRejectChange:      "reject-change",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Behavior is the per document type strategy, chosen once when a section is
// created.
type Behavior interface {
	Kind() Kind
	// CommandName returns the server command for op, or false when the
	// document type does not support it.
	CommandName(op Op) (string, bool)
	// BuildThreads restores thread order after the list changed.
	BuildThreads(l *thread.List)
	// MustCheckSelectedPart reports whether comments on parts other than the
	// selected one are hidden.
	MustCheckSelectedPart(fileBasedView bool) bool
	// SupportsThreadLayout reports whether comments are positioned in a
	// margin lane at all.
	SupportsThreadLayout() bool
	// SupportsPopOut reports whether the selected thread can be shown bigger.
	SupportsPopOut() bool
	// PrefersHTML reports whether saves send the rich html body when one is
	// available.
	PrefersHTML() bool
	// ResizesComments reports whether comment boxes grow to fit their text.
	ResizesComments() bool
	// ListsComments reports whether comments are shown in the margin list.
	ListsComments(mobile bool) bool
}

// For returns the behavior for kind.
func For(kind Kind) (Behavior, error) {
	switch kind {
	case Text:
		return textBehavior{}, nil
	case Spreadsheet:
		return spreadsheetBehavior{}, nil
	case Presentation:
		return slideBehavior{kind: Presentation}, nil
	case Drawing:
		return slideBehavior{kind: Drawing}, nil
	default:
		return nil, fmt.Errorf("unknown document type %q", kind)
	}
}

// shared command names.
var common = map[Op]string{
	OpInsert:            "InsertAnnotation",
	OpEdit:              "EditAnnotation",
	OpEditTrackedChange: "CommentChangeTracking",
	OpResolve:           "ResolveComment",
	OpResolveThread:     "ResolveCommentThread",
	OpAcceptChange:      "AcceptTrackedChange",
	OpRejectChange:      "RejectTrackedChange",
}

func lookup(overrides map[Op]string, op Op) (string, bool) {
	if name, ok := overrides[op]; ok {
		return name, name != ""
	}
	name, ok := common[op]
	return name, ok
}

type textBehavior struct{}

var textCommands = map[Op]string{
	OpReply:        "ReplyComment",
	OpDelete:       "DeleteComment",
	OpDeleteThread: "DeleteCommentThread",
	OpPromote:      "PromoteComment",
}

func (textBehavior) Kind() Kind                       { return Text }
func (textBehavior) CommandName(op Op) (string, bool) { return lookup(textCommands, op) }
func (textBehavior) BuildThreads(l *thread.List)      { l.Order(true) }
func (textBehavior) MustCheckSelectedPart(bool) bool  { return false }
func (textBehavior) SupportsThreadLayout() bool       { return true }
func (textBehavior) SupportsPopOut() bool             { return true }
func (textBehavior) PrefersHTML() bool                { return true }
func (textBehavior) ResizesComments() bool            { return true }
func (textBehavior) ListsComments(mobile bool) bool   { return !mobile }

type spreadsheetBehavior struct{}

var spreadsheetCommands = map[Op]string{
	OpReply:             "ReplyComment",
	OpDelete:            "DeleteNote",
	OpEditTrackedChange: "",
	OpResolve:           "",
	OpResolveThread:     "",
	OpAcceptChange:      "",
	OpRejectChange:      "",
}

func (spreadsheetBehavior) Kind() Kind                       { return Spreadsheet }
func (spreadsheetBehavior) CommandName(op Op) (string, bool) { return lookup(spreadsheetCommands, op) }
func (spreadsheetBehavior) BuildThreads(l *thread.List)      { l.Order(false) }
func (spreadsheetBehavior) MustCheckSelectedPart(bool) bool  { return true }
func (spreadsheetBehavior) SupportsThreadLayout() bool       { return false }
func (spreadsheetBehavior) SupportsPopOut() bool             { return false }
func (spreadsheetBehavior) PrefersHTML() bool                { return false }
func (spreadsheetBehavior) ResizesComments() bool            { return false }
func (spreadsheetBehavior) ListsComments(bool) bool          { return false }

// slideBehavior serves presentations and drawings, which only differ in name.
type slideBehavior struct {
	kind Kind
}

var slideCommands = map[Op]string{
	OpReply:             "ReplyToAnnotation",
	OpDelete:            "DeleteAnnotation",
	OpEditTrackedChange: "",
	OpResolve:           "",
	OpResolveThread:     "",
	OpAcceptChange:      "",
	OpRejectChange:      "",
}

func (b slideBehavior) Kind() Kind                        { return b.kind }
func (slideBehavior) CommandName(op Op) (string, bool)    { return lookup(slideCommands, op) }
func (slideBehavior) BuildThreads(l *thread.List)         { l.Order(false) }
func (slideBehavior) MustCheckSelectedPart(fbv bool) bool { return !fbv }
func (slideBehavior) SupportsThreadLayout() bool          { return true }
func (slideBehavior) SupportsPopOut() bool                { return false }
func (slideBehavior) PrefersHTML() bool                   { return false }
func (slideBehavior) ResizesComments() bool               { return false }
func (slideBehavior) ListsComments(mobile bool) bool      { return !mobile }
