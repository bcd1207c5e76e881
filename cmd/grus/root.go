package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"grus/internal/app"
	"grus/internal/config"
	"grus/internal/logging"
	"grus/internal/storage"
	"grus/internal/ui"
)

type options struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "grus",
		Short:         "Hierarchical task outliner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $GRUS_CONFIG or <user config dir>/grus/config.toml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "task database, overrides db_path from the config")

	root.AddCommand(
		newExportCmd(&opts),
		newImportCmd(&opts),
	)
	return root
}

func (o options) load() (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, nil
}

func (o options) open() (config.Config, *storage.Store, error) {
	cfg, err := o.load()
	if err != nil {
		return cfg, nil, err
	}
	store, err := storage.Open(cfg.DBPath, cfg.RootName)
	if err != nil {
		return cfg, nil, fmt.Errorf("opening database: %w", err)
	}
	return cfg, store, nil
}

func runTUI(ctx context.Context, opts options) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return errors.New("stdout is not a terminal; use 'grus export' to read tasks from scripts")
	}

	cfg, store, err := opts.open()
	if err != nil {
		return err
	}
	defer store.Close()

	log, closeLog, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closeLog()

	a, err := app.New(ctx, store, app.ClipboardBridge{}, log)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "start", "db", cfg.DBPath, "glyphs", cfg.Glyphs, "mouse", cfg.Mouse)
	if err := ui.Run(ctx, a, cfg); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
