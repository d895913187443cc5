package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/briangreenhill/runtracker/internal/config"
	"github.com/briangreenhill/runtracker/internal/directions"
	"github.com/briangreenhill/runtracker/internal/mapview"
	"github.com/briangreenhill/runtracker/internal/run"
	"github.com/briangreenhill/runtracker/internal/share"
)

// UnitStore persists the preferred distance unit.
type UnitStore interface {
	Unit(ctx context.Context) (run.Unit, error)
	SaveUnit(ctx context.Context, unit run.Unit) error
}

// newTracker wires a tracker for the given location source.
func newTracker(logger *slog.Logger, cfg *config.Config, locations run.LocationProvider, view *mapview.State, out io.Writer, unit run.Unit) *run.Tracker {
	client := directions.NewClient(logger, directions.Config{
		Token:   cfg.Mapbox.Token,
		BaseURL: cfg.Mapbox.BaseURL,
		Profile: cfg.Mapbox.Profile,
		Timeout: cfg.Directions.Timeout,
	})

	return run.NewTracker(logger, run.Dependencies{
		Locations:  locations,
		Renderer:   view,
		Directions: client,
		Composer:   share.NewPrinter(out),
	}, run.Options{
		RegionRadius:      cfg.Location.RegionRadius,
		DirectionsTimeout: cfg.Directions.Timeout,
		MapsURL:           cfg.Share.MapsURL,
		Unit:              unit,
	})
}

// savedUnit falls back to miles when the store cannot be read.
func savedUnit(ctx context.Context, logger *slog.Logger, store UnitStore) run.Unit {
	if store == nil {
		return run.Miles
	}
	unit, err := store.Unit(ctx)
	if err != nil {
		logger.Error("Error reading distance unit", slog.Any("error", err))
		return run.Miles
	}
	return unit
}

// startWhenAuthorized starts a run once the provider's authorization has
// reached the tracker.
func startWhenAuthorized(ctx context.Context, loop *run.Loop) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := loop.Do(ctx, (*run.Tracker).Start)
		if !errors.Is(err, run.ErrAuthorizationPending) {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-ticker.C:
		}
	}
}
