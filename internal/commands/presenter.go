package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/styles"
)

// formPresenter asks on the terminal how to resolve an edit conflict.
type formPresenter struct{}

func (formPresenter) PresentConflict(ctx context.Context, c conflict.Conflict) (conflict.Choice, error) {
	opts := make([]huh.Option[conflict.Choice], 0, len(c.Choices()))
	for _, ch := range c.Choices() {
		opts = append(opts, huh.NewOption(choiceLabel(ch), ch))
	}

	choice := c.Choices()[0]
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(conflictTitle(c)).
				Description(conflictBody(c)),
			huh.NewSelect[conflict.Choice]().
				Title("Resolve").
				Options(opts...).
				Value(&choice),
		),
	).WithTheme(styles.FormTheme()).RunWithContext(ctx)
	if err != nil {
		return choice, fmt.Errorf("conflict prompt: %w", err)
	}
	return choice, nil
}

func conflictTitle(c conflict.Conflict) string {
	if c.Kind == conflict.Removed {
		return fmt.Sprintf("%s removed comment %s while you were editing it", c.Author, c.CommentID)
	}
	return fmt.Sprintf("%s changed comment %s while you were editing it", c.Author, c.CommentID)
}

func conflictBody(c conflict.Conflict) string {
	if c.Kind == conflict.Removed {
		return "Your draft:\n" + c.Local
	}
	return fmt.Sprintf("Your draft:\n%s\n\nTheir version:\n%s", c.Local, c.Remote)
}

func choiceLabel(ch conflict.Choice) string {
	switch ch {
	case conflict.Overwrite:
		return "Overwrite: take their version"
	case conflict.Update:
		return "Update: keep editing my draft"
	default:
		return "OK"
	}
}

// selectPresenter picks how conflicts are answered. The flag overrides the
// configured policy; a prompt policy only shows a form when stdin is a
// terminal that is not also the message source.
func selectPresenter(flag, configured string, stdinIsInput bool) (conflict.Presenter, error) {
	policy, err := conflict.ParsePolicy(configured)
	if flag != "" {
		policy, err = conflict.ParsePolicy(flag)
	}
	if err != nil {
		return nil, err
	}

	if policy == conflict.PolicyPrompt && !stdinIsInput && term.IsTerminal(int(os.Stdin.Fd())) {
		return formPresenter{}, nil
	}
	return conflict.PolicyPresenter{Policy: policy}, nil
}
