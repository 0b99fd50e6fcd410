// Package conflict decides when a remote change to a comment that is being
// edited locally needs the user's attention, and what the user may answer.
package conflict

import (
	"context"
	"fmt"

	"github.com/colonyops/margin/internal/core/comment"
)

// Kind classifies a conflict by the remote action.
type Kind int

const (
	// Modified means the remote side changed the comment.
	Modified Kind = iota
	// Removed means the remote side deleted the comment.
	Removed
)

func (k Kind) String() string {
	if k == Removed {
		return "removed"
	}
	return "modified"
}

// KindFor maps a server action to a conflict kind.
func KindFor(action comment.Action) Kind {
	switch action {
	case comment.ActionRemove, comment.ActionRedlinedDeletion:
		return Removed
	default:
		return Modified
	}
}

// Choice is the user's answer to a conflict.
type Choice int

const (
	// OK acknowledges a remote removal. The local edit is discarded.
	OK Choice = iota
	// Overwrite discards the local edit and applies the remote state.
	Overwrite
	// Update keeps editing. The remote state is stored but not shown.
	Update
)

func (c Choice) String() string {
	switch c {
	case Overwrite:
		return "overwrite"
	case Update:
		return "update"
	default:
		return "ok"
	}
}

// Conflict describes one prompt.
type Conflict struct {
	Kind      Kind
	CommentID string
	Author    string
	// Local is the draft being edited and Remote the incoming text.
	Local  string
	Remote string
}

// Choices lists the answers the user may give.
func (c Conflict) Choices() []Choice {
	if c.Kind == Removed {
		return []Choice{OK}
	}
	return []Choice{Overwrite, Update}
}

// Allows reports whether choice is a valid answer.
func (c Conflict) Allows(choice Choice) bool {
	for _, ch := range c.Choices() {
		if ch == choice {
			return true
		}
	}
	return false
}

// Presenter asks the user to resolve a conflict.
type Presenter interface {
	PresentConflict(ctx context.Context, c Conflict) (Choice, error)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, c Conflict) (Choice, error)

// PresentConflict implements Presenter.
func (f PresenterFunc) PresentConflict(ctx context.Context, c Conflict) (Choice, error) {
	return f(ctx, c)
}

// Policy is a fixed answer used when nobody can be asked.
type Policy string

const (
	PolicyPrompt    Policy = "prompt"
	PolicyOverwrite Policy = "overwrite"
	PolicyUpdate    Policy = "update"
)

// ParsePolicy validates s.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyPrompt, PolicyOverwrite, PolicyUpdate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", s)
	}
}

// PolicyPresenter answers every conflict with its policy. Removals are
// always acknowledged. PolicyPrompt behaves like PolicyUpdate so a local
// edit is never dropped without a human deciding.
type PolicyPresenter struct {
	Policy Policy
}

// PresentConflict implements Presenter.
func (p PolicyPresenter) PresentConflict(_ context.Context, c Conflict) (Choice, error) {
	if c.Kind == Removed {
		return OK, nil
	}
	if p.Policy == PolicyOverwrite {
		return Overwrite, nil
	}
	return Update, nil
}

// Check gathers what the gate needs to know about an incoming change.
type Check struct {
	Action comment.Action
	// ID is the identity the change targets, "change-<n>" for redlines.
	ID       string
	Incoming comment.Payload
	// Editing is the comment under local edit, nil for none.
	Editing *comment.Comment
	// AutoSavedID is the id of the autosaved draft awaiting its echo.
	AutoSavedID string
	LocalUser   string
}

// MustPrompt reports whether the change conflicts with the local edit.
func (c Check) MustPrompt() bool {
	if c.Editing == nil {
		return false
	}
	if c.ID != c.Editing.ID() {
		return false
	}
	if c.Incoming.Author == c.LocalUser {
		return false
	}
	if c.Editing.SelfRemoved {
		return false
	}
	if c.AutoSavedID != "" && c.AutoSavedID == c.Editing.ID() {
		return false
	}
	if c.Action == comment.ActionModify && comment.OnlyAnchorChanged(c.Incoming, c.Editing.Data) {
		return false
	}
	return true
}

// Conflict builds the prompt for c.
func (c Check) Conflict() Conflict {
	out := Conflict{
		Kind:      KindFor(c.Action),
		CommentID: c.ID,
		Author:    c.Incoming.Author,
		Remote:    c.Incoming.Text,
	}
	if c.Editing != nil {
		out.Local = c.Editing.Draft
	}
	return out
}
