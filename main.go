package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/commands"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/styles"
	"github.com/colonyops/margin/internal/data/db"
	"github.com/colonyops/margin/internal/data/stores"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/sweep"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the margin database. A corrupt file is moved aside
// and replaced with an empty database.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	switch {
	case err == nil:
		return database, nil
	case stores.IsBusyError(err):
		return nil, fmt.Errorf("open database: locked by another margin process: %w", err)
	case stores.IsCorruptionError(err):
		log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupt, moving it aside")
		if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
			return nil, fmt.Errorf("recover database: %w", rerr)
		}
		database, err = db.Open(cfg.DataDir, opts)
		if err != nil {
			return nil, fmt.Errorf("open database after recovery: %w", err)
		}
		return database, nil
	default:
		return nil, fmt.Errorf("open database: %w", err)
	}
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		marginApp = &margin.App{}
		database  *db.DB
		stopBus   context.CancelFunc
		busDone   chan struct{}
		stopSweep context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "margin",
		Usage:     "Manage comment threads beside a collaborative document",
		UsageText: "margin [global options] command [command options]",
		Description: `Margin keeps the comments and tracked changes of a document in threads,
reconciles them with server updates and lays them out in a lane beside the
document.

Run 'margin replay' to feed a recorded session through the margin.
Run 'margin journal ls' to list sessions recorded so far.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MARGIN_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("MARGIN_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MARGIN_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("MARGIN_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Output.Theme)
			styles.SetTheme(palette)

			database, err = openDatabase(cfg)
			if err != nil {
				return ctx, err
			}

			busCtx, cancel := context.WithCancel(context.Background())
			stopBus = cancel
			busDone = make(chan struct{})
			bus := eventbus.New(256)
			go func() {
				defer close(busDone)
				bus.Start(busCtx)
			}()

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*marginApp = *margin.NewApp(cfg, database, bus)
			marginApp.RegisterObservers(logger)

			sweepCtx, cancel := context.WithCancel(context.Background())
			stopSweep = cancel
			go sweep.Start(sweepCtx, marginApp.KV, marginApp.Journal, cfg.Journal.SweepInterval, cfg.Journal.Retention)

			return printer.NewContext(ctx, printer.New(os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if stopSweep != nil {
				stopSweep()
			}

			// Deliver queued events (journal writes) before the database closes
			if stopBus != nil {
				stopBus()
				<-busDone
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewReplayCmd(flags, marginApp).Register(app)
	app = commands.NewJournalCmd(flags, marginApp).Register(app)
	app = commands.NewDoctorCmd(flags, marginApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
