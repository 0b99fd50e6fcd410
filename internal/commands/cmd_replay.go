package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/protocol"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type ReplayCmd struct {
	flags *Flags
	app   *margin.App

	// flags
	files      []string
	glob       string
	docType    string
	user       string
	document   string
	jsonOutput bool
	keepGoing  bool
	onConflict string
}

// NewReplayCmd creates a new replay command
func NewReplayCmd(flags *Flags, app *margin.App) *ReplayCmd {
	return &ReplayCmd{flags: flags, app: app}
}

// Register adds the replay command to the application
func (cmd *ReplayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "replay",
		Usage:     "Replay a recorded comment session",
		UsageText: "margin replay [options] [file...]",
		Description: `Feeds JSON lines of server comment messages and local actions through the
comment margin and prints the resulting threads with their layout.

Each line holds one message: "comment", "redline", "comments", "redlines",
"view", "viewRemoved", "parts" or "local". Blank lines and lines starting
with # are skipped. With no file, messages are read from stdin.

Every session is journaled; use 'margin journal' to inspect it later.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "message file to replay (repeatable, - for stdin)",
				Destination: &cmd.files,
			},
			&cli.StringFlag{
				Name:        "glob",
				Usage:       "replay every file matching the pattern (supports **)",
				Destination: &cmd.glob,
			},
			&cli.StringFlag{
				Name:        "doc-type",
				Usage:       "document type (text, spreadsheet, presentation, drawing)",
				Destination: &cmd.docType,
			},
			&cli.StringFlag{
				Name:        "user",
				Usage:       "local user name, overrides user.name",
				Destination: &cmd.user,
			},
			&cli.StringFlag{
				Name:        "document",
				Usage:       "document id recorded in the journal (defaults to the file name)",
				Destination: &cmd.document,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output comments as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "keep-going",
				Usage:       "log failing messages and continue",
				Destination: &cmd.keepGoing,
			},
			&cli.StringFlag{
				Name:        "on-conflict",
				Usage:       "answer edit conflicts with prompt, overwrite or update",
				Destination: &cmd.onConflict,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReplayCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	inputs, err := cmd.inputs(c.Args().Slice())
	if err != nil {
		return err
	}

	var kind doctype.Kind
	if cmd.docType != "" {
		if kind, err = doctype.Parse(cmd.docType); err != nil {
			return err
		}
	}

	presenter, err := selectPresenter(cmd.onConflict, cmd.flags.Config.Conflict.Policy, slices.Contains(inputs, iojson.Stdin))
	if err != nil {
		return err
	}

	var failed int
	for _, input := range inputs {
		report, err := cmd.replay(ctx, c, input, margin.SessionOptions{
			DocumentID: cmd.documentID(input),
			Kind:       kind,
			User:       cmd.user,
			Presenter:  presenter,
		})
		if err != nil {
			return fmt.Errorf("replay %s: %w", displayName(input), err)
		}

		failed += report.Failed
		switch {
		case !cmd.jsonOutput:
			p.Successf("%s: %d message(s), %d failed", displayName(input), report.Messages, report.Failed)
		case report.Failed > 0:
			_ = iojson.WriteError(c.Root().ErrWriter, "messages failed", map[string]any{
				"input":    displayName(input),
				"messages": report.Messages,
				"failed":   report.Failed,
			})
		}
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ReplayCmd) replay(ctx context.Context, c *cli.Command, input string, opts margin.SessionOptions) (margin.ReplayReport, error) {
	rc, err := iojson.Open(input)
	if err != nil {
		if errors.Is(err, iojson.ErrTerminal) {
			return margin.ReplayReport{}, errors.New("no input: pass a file or pipe messages on stdin")
		}
		return margin.ReplayReport{}, err
	}
	defer func() { _ = rc.Close() }()

	sess, err := cmd.app.Open(ctx, opts)
	if err != nil {
		return margin.ReplayReport{}, err
	}
	defer sess.Close()

	report, err := sess.Replay(ctx, protocol.NewReader(rc), margin.ReplayOptions{KeepGoing: cmd.keepGoing})
	if err != nil {
		return report, err
	}

	res := sess.Layout()
	out := c.Root().Writer
	if cmd.jsonOutput {
		return report, writeJSON(out, opts.DocumentID, sess.Comments(), res)
	}

	_, err = fmt.Fprintln(out, renderThreads(opts.DocumentID, sess.Comments(), res))
	return report, err
}

// inputs collects the files to replay in order: --file values, positional
// arguments, then --glob matches sorted by name. No input at all means stdin.
func (cmd *ReplayCmd) inputs(args []string) ([]string, error) {
	inputs := slices.Concat(cmd.files, args)

	if cmd.glob != "" {
		matches, err := doublestar.FilepathGlob(cmd.glob)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", cmd.glob, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("glob %q matched no files", cmd.glob)
		}
		slices.Sort(matches)
		inputs = append(inputs, matches...)
	}

	if len(inputs) == 0 {
		inputs = []string{iojson.Stdin}
	}
	return inputs, nil
}

func (cmd *ReplayCmd) documentID(input string) string {
	if cmd.document != "" {
		return cmd.document
	}
	return displayName(input)
}

func displayName(input string) string {
	if input == "" || input == iojson.Stdin {
		return "stdin"
	}
	return filepath.Base(input)
}
