package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"

	"github.com/briangreenhill/runtracker/internal/app"
	"github.com/briangreenhill/runtracker/internal/config"
	"github.com/briangreenhill/runtracker/internal/logging"
	"github.com/briangreenhill/runtracker/internal/settings"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	w := os.Stdout

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{})).Error("Error loading config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(w, cfg.Log.Level, cfg.Log.Format)

	if _, err := os.Stat(cfg.Database.Path); err != nil {
		err := os.WriteFile(cfg.Database.Path, []byte(""), 0644)
		if err != nil {
			logger.Error("Error creating database file", slog.Any("file", cfg.Database.Path))
			os.Exit(1)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Database.Path)
	if err != nil {
		logger.Error("Error opening database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	store := settings.NewStore(db, logger)
	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("Error creating table", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(w, os.Args[1:], cfg, logger, store); err != nil {
		logger.Error("Error running runtracker", slog.Any("error", err))
		return
	}
}

func run(w io.Writer, args []string, cfg *config.Config, logger *slog.Logger, store *settings.Store) error {
	cli := app.NewCLI(w, cfg, logger, store, args)

	if err := cli.Run(args); err != nil {
		return err
	}

	return nil
}
