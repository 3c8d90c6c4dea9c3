package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/llehouerou/crate/internal/app"
	"github.com/llehouerou/crate/internal/config"
	"github.com/llehouerou/crate/internal/errmsg"
	"github.com/llehouerou/crate/internal/history"
	"github.com/llehouerou/crate/internal/kv"
	"github.com/llehouerou/crate/internal/log"
	"github.com/llehouerou/crate/internal/poller"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/service"
)

const (
	flagConfigFilePath = "config"
	flagLogFile        = "log-file"
	flagQuery          = "query"
	flagPrettyLog      = "pretty-log"
)

func main() {
	//nolint:exhaustruct
	cliApp := &cli.App{
		Name:   "crate",
		Usage:  "Search artists and download albums from a download service",
		Action: run,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path (default: ~/.config/crate/config.toml, then ./config.toml)",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "Log file path (default: $XDG_STATE_HOME/crate/crate.log)",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagQuery,
				Aliases: []string{"q"},
				Usage:   "Search for this artist on startup",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:  flagPrettyLog,
				Usage: "Write indented, colored log entries",
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := config.Load(cliCtx.String(flagConfigFilePath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasServiceConfig() {
		return fmt.Errorf("no download service configured: set service.url in config.toml or %s", config.EnvURL)
	}

	logFile, err := openLogFile(cliCtx.String(flagLogFile))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	level := log.ParseLevel(cfg.LogLevel)
	logger := log.NewPacked(logFile, level)
	if cliCtx.Bool(flagPrettyLog) {
		logger = log.NewPretty(logFile, level)
	}

	db, err := kv.Open()
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close local storage")
		}
	}()

	client := service.NewCached(service.NewClient(cfg.Service.URL, cfg.Service.APIKey), cfg.CacheTTL())
	defer client.Close()

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	statusPoller := poller.New(client,
		poller.WithContext(ctx),
		poller.WithInterval(cfg.PollInterval()),
		poller.WithMaxAttempts(cfg.PollMaxAttempts()),
		poller.WithStopOnTerminal(cfg.StopOnTerminal()),
		poller.WithLogger(logger.With().Str("component", "poller").Logger()),
	)

	model := app.New(app.Deps{
		Service: client,
		Poller:  statusPoller,
		Persister: selection.NewPersister(db.Deferred(),
			selection.WithTTL(cfg.SelectionTTL()),
			selection.WithLogger(logger.With().Str("component", "selection").Logger()),
		),
		History: history.New(db, cfg.HistoryMax()),
		Options: service.Options{
			Quality:   cfg.Download.Quality,
			Format:    cfg.Download.Format,
			OutputDir: cfg.Download.OutputDir,
		},
		Logger:       logger,
		InitialQuery: cliCtx.String(flagQuery),
	})
	defer model.Close()

	logger.Info().Str("url", cfg.Service.URL).Msg("Starting")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func openLogFile(path string) (io.WriteCloser, error) {
	if path == "" {
		p, err := log.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return log.OpenFile(path)
}

