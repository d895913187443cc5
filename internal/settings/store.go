// Package settings stores user preferences that outlive a single run.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/briangreenhill/runtracker/internal/run"
)

const unitKey = "distance_unit"

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS settings (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`)
	return err
}

// Unit returns the saved distance unit, or miles when none has been saved.
func (s *Store) Unit(ctx context.Context) (run.Unit, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", unitKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return run.Miles, nil
	}
	if err != nil {
		return "", err
	}

	unit, err := run.ParseUnit(value)
	if err != nil {
		s.logger.Warn("Ignoring saved distance unit", slog.String("value", value))
		return run.Miles, nil
	}
	return unit, nil
}

func (s *Store) SaveUnit(ctx context.Context, unit run.Unit) error {
	res, err := s.db.ExecContext(ctx, `
    INSERT INTO settings (key, value) VALUES (?, ?)
    ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		unitKey, string(unit))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", affected)
	}

	s.logger.Info("Saved distance unit", slog.String("unit", string(unit)))
	return nil
}
