package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/briangreenhill/runtracker/internal/config"
	"github.com/briangreenhill/runtracker/internal/location"
	"github.com/briangreenhill/runtracker/internal/mapview"
	"github.com/briangreenhill/runtracker/internal/run"
)

type CLI struct {
	writer io.Writer
	cfg    *config.Config
	store  UnitStore
	args   []string
	logger *slog.Logger
}

func NewCLI(w io.Writer, cfg *config.Config, logger *slog.Logger, store UnitStore, args []string) *CLI {
	return &CLI{
		writer: w,
		cfg:    cfg,
		store:  store,
		args:   args,
		logger: logger,
	}
}

func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.Usage()
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch args[0] {
	case "api":
		if err := c.RunAPI(ctx); err != nil {
			return err
		}
	case "replay":
		if err := c.Replay(ctx); err != nil {
			return err
		}
	case "unit":
		if err := c.Unit(ctx); err != nil {
			return err
		}
	default:
		c.Usage()
	}
	return nil
}

func (c *CLI) Usage() {
	fmt.Fprintf(c.writer, "Usage: runtracker [command] [flags]\n--help show this message\n\n\tapi\n\treplay --gpx [--interval] [--unit]\n\tunit [mi|km]\n")
}

func (c *CLI) RunAPI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	push := location.NewPush(c.logger, c.cfg.AuthorizationStatus())
	view := mapview.New(c.logger)
	tracker := newTracker(c.logger, c.cfg, push, view, c.writer, savedUnit(ctx, c.logger, c.store))
	loop := run.NewLoop(c.logger, tracker)

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	mux := NewAPI(c.logger, API{
		Loop:  loop,
		Push:  push,
		View:  view,
		Units: c.store,
		Token: c.cfg.Mapbox.Token,
	})

	server := &http.Server{
		Addr:    c.cfg.Server.Addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		c.logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("Error shutting down server", slog.Any("error", err))
		}
	}()

	c.logger.Info("Starting server", slog.String("addr", c.cfg.Server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		c.logger.Error("Error starting server", slog.Any("error", err))
		cancel()
		return err
	}

	cancel()
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Replay tracks a run from a recorded GPX file, then prints the summary and
// the share message.
func (c *CLI) Replay(ctx context.Context) error {
	fs := flag.NewFlagSet("runtracker", flag.ContinueOnError)
	fs.SetOutput(c.writer)
	var gpxFile, unitName string
	var interval time.Duration
	fs.StringVar(&gpxFile, "gpx", "", "path to gpx file")
	fs.DurationVar(&interval, "interval", c.cfg.Location.ReplayInterval, "time between replayed positions")
	fs.StringVar(&unitName, "unit", "", "distance unit (mi or km)")
	fs.Usage = c.Usage

	if err := fs.Parse(c.args[1:]); err != nil {
		return err
	}

	if gpxFile == "" {
		fs.Usage()
		return fmt.Errorf("missing --gpx")
	}

	c.logger.Info("Replaying gpx file", slog.String("gpx_file", gpxFile))

	g, err := location.ReadGPXFile(gpxFile)
	if err != nil {
		return err
	}

	unit := savedUnit(ctx, c.logger, c.store)
	if unitName != "" {
		if unit, err = run.ParseUnit(unitName); err != nil {
			return err
		}
	}

	replay := location.NewReplay(c.logger, g, location.ReplayOptions{
		Interval:       interval,
		DistanceFilter: c.cfg.Location.DistanceFilter,
	})
	view := mapview.New(c.logger)
	tracker := newTracker(c.logger, c.cfg, replay, view, c.writer, unit)
	loop := run.NewLoop(c.logger, tracker)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	if err := startWhenAuthorized(ctx, loop); err != nil {
		return err
	}

	select {
	case <-replay.Done():
	case <-ctx.Done():
		c.logger.Info("Replay interrupted")
	}

	if err := loop.Do(loopCtx, (*run.Tracker).Stop); err != nil {
		return err
	}

	snap, err := loop.Snapshot(loopCtx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.writer, "Time: %s\n", snap.Clock)
	fmt.Fprintln(c.writer, snap.Summary)

	var msg string
	err = loop.Do(loopCtx, func(t *run.Tracker) error {
		var shareErr error
		msg, shareErr = t.Share()
		return shareErr
	})
	switch {
	case errors.Is(err, run.ErrRouteUnavailable):
		fmt.Fprintln(c.writer, "Not enough positions to share a route")
	case errors.Is(err, run.ErrComposeUnavailable):
		c.logger.Warn("Can't send message", slog.String("message", msg))
	case err != nil:
		return err
	}

	return nil
}

// Unit prints the saved distance unit, or saves a new one.
func (c *CLI) Unit(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("no settings store")
	}

	if len(c.args) < 2 {
		unit, err := c.store.Unit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.writer, unit.Name())
		return nil
	}

	unit, err := run.ParseUnit(c.args[1])
	if err != nil {
		return err
	}
	if err := c.store.SaveUnit(ctx, unit); err != nil {
		return err
	}

	fmt.Fprintf(c.writer, "Distance unit set to %s\n", unit.Name())
	return nil
}
