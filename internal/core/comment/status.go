package comment

import "fmt"

// LayoutStatus mirrors the tracked change state the server attaches to a
// comment. The numeric values are part of the wire protocol.
type LayoutStatus int

const (
	StatusInvisible LayoutStatus = 0
	StatusVisible   LayoutStatus = 1
	StatusInserted  LayoutStatus = 2
	StatusDeleted   LayoutStatus = 3
	StatusNone      LayoutStatus = 4
	StatusHidden    LayoutStatus = 5
)

func (s LayoutStatus) String() string {
	switch s {
	case StatusInvisible:
		return "INVISIBLE"
	case StatusVisible:
		return "VISIBLE"
	case StatusInserted:
		return "INSERTED"
	case StatusDeleted:
		return "DELETED"
	case StatusNone:
		return "NONE"
	case StatusHidden:
		return "HIDDEN"
	default:
		return fmt.Sprintf("LayoutStatus(%d)", int(s))
	}
}

// Action is the kind of change a server event describes.
type Action string

const (
	ActionAdd              Action = "Add"
	ActionRemove           Action = "Remove"
	ActionModify           Action = "Modify"
	ActionResolve          Action = "Resolve"
	ActionRedlinedDeletion Action = "RedlinedDeletion"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionRemove, ActionModify, ActionResolve, ActionRedlinedDeletion:
		return true
	}
	return false
}
