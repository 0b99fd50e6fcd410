package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
)

// JournalSessionCompleter returns a ShellCompleteFunc that suggests recorded
// session ids as positional completions, newest first.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func JournalSessionCompleter(app *margin.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		sessions, err := app.Journal.Sessions(ctx, "")
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, s := range sessions {
			_, _ = fmt.Fprintln(w, s.ID)
		}
	}
}
