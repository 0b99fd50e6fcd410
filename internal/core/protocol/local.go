package protocol

// Op is a user action performed on the margin.
type Op string

const (
	OpInsert        Op = "insert"
	OpSelect        Op = "select"
	OpUnselect      Op = "unselect"
	OpEdit          Op = "edit"
	OpSave          Op = "save"
	OpAutoSave      Op = "autosave"
	OpReply         Op = "reply"
	OpAutoSaveReply Op = "autosave-reply"
	OpRemove        Op = "remove"
	OpRemoveThread  Op = "remove-thread"
	OpResolve       Op = "resolve"
	OpResolveThread Op = "resolve-thread"
	OpPromote       Op = "promote"
	OpCancel        Op = "cancel"
	OpToggleBigger  Op = "toggle-bigger"
	OpAccept        Op = "accept"
	OpReject        Op = "reject"
	OpRejectAll     Op = "reject-all"
	OpPart          Op = "part"
	OpNextPart      Op = "next-part"
	OpPreviousPart  Op = "previous-part"
	OpShowResolved  Op = "show-resolved"
	OpResize        Op = "resize"
	OpScroll        Op = "scroll"
)

var ops = map[Op]bool{
	OpInsert: true, OpSelect: true, OpUnselect: true, OpEdit: true, OpSave: true,
	OpAutoSave: true, OpReply: true, OpAutoSaveReply: true, OpRemove: true, OpRemoveThread: true,
	OpResolve: true, OpResolveThread: true, OpPromote: true, OpCancel: true,
	OpToggleBigger: true, OpAccept: true, OpReject: true, OpRejectAll: true,
	OpPart: true, OpNextPart: true, OpPreviousPart: true, OpShowResolved: true,
	OpResize: true, OpScroll: true,
}

// Valid reports whether o is a known op.
func (o Op) Valid() bool { return ops[o] }

// LocalAction is a scripted user action. Which fields are read depends on
// Op:
//
//   - insert: Anchor (twips rectangle), Text, Part
//   - edit, save, autosave, reply, autosave-reply: ID, Text, HTML
//   - part: Part
//   - show-resolved: Show
//   - resize: Width and FileWidth in core pixels
//   - scroll: Top in core pixels
//
// Every other op reads only ID.
type LocalAction struct {
	Op        Op     `json:"op"`
	ID        string `json:"id,omitempty"`
	Text      string `json:"text,omitempty"`
	HTML      string `json:"html,omitempty"`
	Anchor    string `json:"anchor,omitempty"`
	Part      int    `json:"part,omitempty"`
	Show      bool   `json:"show,omitempty"`
	Width     int    `json:"width,omitempty"`
	FileWidth int    `json:"fileWidth,omitempty"`
	Top       int    `json:"top,omitempty"`
}
