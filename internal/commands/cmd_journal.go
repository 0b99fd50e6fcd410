package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/core/journal"
	"github.com/colonyops/margin/internal/core/notify"
	"github.com/colonyops/margin/internal/data/stores"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type JournalCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	document   string
	jsonOutput bool
	olderThan  time.Duration
	notices    bool
}

// NewJournalCmd creates a new journal command
func NewJournalCmd(flags *Flags, app *margin.App) *JournalCmd {
	return &JournalCmd{flags: flags, app: app}
}

// Register adds the journal command to the application
func (cmd *JournalCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON lines",
		Destination: &cmd.jsonOutput,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "journal",
		Usage: "Inspect recorded sessions",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List recorded sessions, newest first",
				UsageText: "margin journal ls [--document <id>] [--json]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "document",
						Usage:       "only sessions of this document",
						Destination: &cmd.document,
					},
					jsonFlag,
				},
				Action: cmd.runLs,
			},
			{
				Name:      "show",
				Usage:     "Print the traffic of one session",
				UsageText: "margin journal show <session-id> [--notices] [--json]",
				ShellComplete: JournalSessionCompleter(cmd.app),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "notices",
						Usage:       "print the notices raised during the session instead",
						Destination: &cmd.notices,
					},
					jsonFlag,
				},
				Action: cmd.runShow,
			},
			{
				Name:      "prune",
				Usage:     "Delete entries older than a duration",
				UsageText: "margin journal prune [--older-than <duration>]",
				Description: `Deletes journal entries recorded before now minus --older-than.
Defaults to journal.retention from the config.`,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:        "older-than",
						Usage:       "age of the oldest entry to keep",
						Destination: &cmd.olderThan,
					},
				},
				Action: cmd.runPrune,
			},
		},
	})

	return app
}

// sessionInfo is the JSON output format for margin journal ls --json.
type sessionInfo struct {
	ID        string    `json:"id"`
	Document  string    `json:"document"`
	Entries   int64     `json:"entries"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

func (cmd *JournalCmd) runLs(ctx context.Context, c *cli.Command) error {
	sessions, err := cmd.app.Journal.Sessions(ctx, cmd.document)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, s := range sessions {
			info := sessionInfo{
				ID:        s.ID,
				Document:  s.DocumentID,
				Entries:   s.Entries,
				StartedAt: s.StartedAt,
				EndedAt:   s.EndedAt,
			}
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
		}
		return nil
	}

	if len(sessions) == 0 {
		printer.Ctx(ctx).Infof("No sessions recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SESSION\tDOCUMENT\tENTRIES\tSTARTED\tDURATION")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.DocumentID, s.Entries,
			s.StartedAt.Format(time.DateTime),
			s.EndedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	return w.Flush()
}

// entryInfo is the JSON output format for margin journal show --json.
type entryInfo struct {
	Seq       int64             `json:"seq"`
	Direction journal.Direction `json:"direction"`
	Kind      string            `json:"kind"`
	CommentID string            `json:"commentId,omitempty"`
	Payload   any               `json:"payload"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (cmd *JournalCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one session id")
	}
	id := c.Args().First()

	if cmd.notices {
		return cmd.showNotices(ctx, c, id)
	}

	entries, err := cmd.app.Journal.Entries(ctx, id)
	if errors.Is(err, stores.ErrNotFound) {
		return fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			info := entryInfo{
				Seq:       e.Seq,
				Direction: e.Direction,
				Kind:      e.Kind,
				CommentID: e.CommentID,
				Payload:   e.Payload,
				CreatedAt: e.CreatedAt,
			}
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEQ\tDIR\tKIND\tCOMMENT")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Seq, e.Direction, e.Kind, e.CommentID)
	}
	return w.Flush()
}

func (cmd *JournalCmd) showNotices(ctx context.Context, c *cli.Command, id string) error {
	notices, err := cmd.app.Notices.List(ctx, id)
	if err != nil {
		return fmt.Errorf("list notices: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, n := range notices {
			if err := iojson.WriteLine(out, n); err != nil {
				return fmt.Errorf("encode notice: %w", err)
			}
		}
		return nil
	}

	p := printer.New(out)
	for _, n := range notices {
		switch n.Level {
		case notify.LevelWarning:
			p.Warnf("%s", n.Message)
		default:
			p.Infof("%s", n.Message)
		}
	}
	return nil
}

func (cmd *JournalCmd) runPrune(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	age := cmd.olderThan
	if age == 0 {
		age = cmd.flags.Config.Journal.Retention
	}
	if age <= 0 {
		p.Infof("Journal retention is disabled, nothing to prune")
		return nil
	}

	n, err := cmd.app.Journal.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}

	if n == 0 {
		p.Infof("No entries older than %s", age)
		return nil
	}
	p.Successf("Pruned %d journal entries older than %s", n, age)
	return nil
}
