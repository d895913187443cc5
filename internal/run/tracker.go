package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/briangreenhill/runtracker/internal/metrics"
)

const (
	DefaultRegionRadius      = 500.0
	DefaultDirectionsTimeout = 10 * time.Second
)

type Dependencies struct {
	Locations  LocationProvider
	Renderer   MapRenderer
	Directions DirectionsService
	Composer   Composer
}

type Options struct {
	RegionRadius      float64
	DirectionsTimeout time.Duration
	MapsURL           string
	Unit              Unit
}

// RouteResult is a completed directions lookup for the session that asked
// for it.
type RouteResult struct {
	SessionID uuid.UUID
	Path      []Coordinate
	Err       error
}

// Tracker is the run state machine. It is not safe for concurrent use; Loop
// serializes every call onto one goroutine.
type Tracker struct {
	logger     *slog.Logger
	locations  LocationProvider
	renderer   MapRenderer
	directions DirectionsService
	composer   Composer
	opts       Options

	gate    Gate
	session *Session
	unit    Unit
	clock   string
	summary string

	routes    chan RouteResult
	done      chan struct{}
	closeOnce sync.Once
}

func NewTracker(logger *slog.Logger, deps Dependencies, opts Options) *Tracker {
	if opts.RegionRadius <= 0 {
		opts.RegionRadius = DefaultRegionRadius
	}
	if opts.DirectionsTimeout <= 0 {
		opts.DirectionsTimeout = DefaultDirectionsTimeout
	}
	if opts.MapsURL == "" {
		opts.MapsURL = DefaultMapsURL
	}
	if opts.Unit == "" {
		opts.Unit = Miles
	}

	return &Tracker{
		logger:     logger,
		locations:  deps.Locations,
		renderer:   deps.Renderer,
		directions: deps.Directions,
		composer:   deps.Composer,
		opts:       opts,
		session:    newSession(),
		unit:       opts.Unit,
		clock:      FormatClock(0),
		routes:     make(chan RouteResult, 4),
		done:       make(chan struct{}),
	}
}

func (t *Tracker) State() State {
	return t.session.State
}

func (t *Tracker) SessionID() uuid.UUID {
	return t.session.ID
}

func (t *Tracker) Unit() Unit {
	return t.unit
}

func (t *Tracker) Authorization() AuthorizationStatus {
	return t.gate.Status()
}

func (t *Tracker) Snapshot() Snapshot {
	s := *t.session
	s.Positions = append([]Position(nil), t.session.Positions...)
	s.seen = nil
	return Snapshot{
		Session: s,
		Clock:   t.clock,
		Summary: t.summary,
		Unit:    t.unit,
	}
}

func (t *Tracker) HandleAuthorization(status AuthorizationStatus) {
	t.gate.update(status)

	switch status {
	case NotDetermined:
		t.locations.RequestAuthorization()
	case Authorized:
		if c, ok := t.locations.Current(); ok {
			t.renderer.SetVisibleRegion(c, t.opts.RegionRadius)
		}
	default:
		t.logger.Warn("Location access unavailable", slog.String("status", status.String()))
	}
}

func (t *Tracker) Start() error {
	if t.session.State == Running {
		return fmt.Errorf("start %s run: %w", t.session.State, ErrInvalidTransition)
	}
	if err := t.gate.Allow(); err != nil {
		if errors.Is(err, ErrAuthorizationPending) {
			t.locations.RequestAuthorization()
		}
		return err
	}

	t.renderer.ClearMarkers()
	t.renderer.ClearPaths()

	t.session = newSession()
	t.session.State = Running
	t.session.BackgroundUpdates = true
	t.clock = FormatClock(0)
	t.summary = ""

	t.locations.SetBackgroundUpdates(true)
	t.locations.Start()

	metrics.RunsStarted.Inc()
	t.logger.Info("Run started", slog.String("session", t.session.ID.String()))
	return nil
}

func (t *Tracker) Stop() error {
	if t.session.State != Running {
		return fmt.Errorf("stop %s run: %w", t.session.State, ErrInvalidTransition)
	}

	t.session.State = Finished
	t.session.BackgroundUpdates = false
	t.locations.SetBackgroundUpdates(false)
	t.locations.Stop()

	t.session.TotalDistance = TotalDistance(t.session.Positions)
	t.summary = SummaryText(t.session.TotalDistance, t.unit)

	for _, a := range Annotations(t.session.Positions) {
		t.renderer.AddMarker(a.Coordinate, a.Title)
	}

	positions := t.session.Positions
	if len(positions) >= 2 {
		t.renderer.ClearPaths()
		t.requestRoute(positions[0].Coordinate, positions[len(positions)-1].Coordinate)
	}

	metrics.RunsFinished.Inc()
	metrics.RunDistance.Observe(t.session.TotalDistance)
	t.logger.Info("Run finished",
		slog.String("session", t.session.ID.String()),
		slog.Int("positions", len(positions)),
		slog.Float64("distance_m", t.session.TotalDistance),
		slog.Int("elapsed_s", t.session.ElapsedSeconds))
	return nil
}

func (t *Tracker) Toggle() error {
	if t.session.State == Running {
		return t.Stop()
	}
	return t.Start()
}

// RecordLocation appends p to the running session. It reports false when
// the coordinate was already recorded.
func (t *Tracker) RecordLocation(p Position) (bool, error) {
	if t.session.State != Running {
		return false, ErrNotRunning
	}

	if !t.session.add(p) {
		metrics.PositionsRecorded.WithLabelValues("duplicate").Inc()
		return false, nil
	}
	metrics.PositionsRecorded.WithLabelValues("recorded").Inc()
	return true, nil
}

// HandleLocations records a batch while running and, when centering is on,
// moves the visible region to its last position.
func (t *Tracker) HandleLocations(batch []Position) {
	if len(batch) == 0 {
		return
	}

	if t.session.State == Running {
		for _, p := range batch {
			if _, err := t.RecordLocation(p); err != nil {
				t.logger.Error("Error recording location", slog.Any("error", err))
			}
		}
	}

	if t.gate.Centering() {
		t.renderer.SetVisibleRegion(batch[len(batch)-1].Coordinate, t.opts.RegionRadius)
	}
}

// Tick advances the elapsed time by one second and returns the clock display.
func (t *Tracker) Tick() (string, error) {
	if t.session.State != Running {
		return t.clock, ErrNotRunning
	}

	t.session.ElapsedSeconds++
	t.clock = FormatClock(t.session.ElapsedSeconds)
	return t.clock, nil
}

func (t *Tracker) SelectUnit(u Unit) error {
	if u != Miles && u != Kilometers {
		return fmt.Errorf("unknown distance unit %q", string(u))
	}

	t.unit = u
	if t.session.State == Finished && len(t.session.Positions) > 0 {
		t.session.TotalDistance = TotalDistance(t.session.Positions)
		t.summary = SummaryText(t.session.TotalDistance, t.unit)
	}
	return nil
}

// Share composes a message linking to the route and asks for the route to be
// drawn. The message is returned even when it could not be composed.
func (t *Tracker) Share() (string, error) {
	positions := t.session.Positions
	link, ok := RouteLink(positions, t.opts.MapsURL)
	if !ok {
		metrics.Shares.WithLabelValues("unavailable").Inc()
		return "", ErrRouteUnavailable
	}

	t.renderer.ClearPaths()
	t.requestRoute(positions[0].Coordinate, positions[len(positions)-1].Coordinate)

	msg := ShareMessage(link)
	if t.composer == nil || !t.composer.CanCompose() {
		metrics.Shares.WithLabelValues("compose_unavailable").Inc()
		t.logger.Warn("Can't send message")
		return msg, ErrComposeUnavailable
	}
	if err := t.composer.Compose(msg); err != nil {
		metrics.Shares.WithLabelValues("compose_unavailable").Inc()
		return msg, fmt.Errorf("%w: %v", ErrComposeUnavailable, err)
	}

	metrics.Shares.WithLabelValues("sent").Inc()
	return msg, nil
}

func (t *Tracker) Routes() <-chan RouteResult {
	return t.routes
}

// ApplyRoute draws a completed lookup. Results for an earlier session and
// failed lookups are dropped.
func (t *Tracker) ApplyRoute(res RouteResult) bool {
	if res.SessionID != t.session.ID {
		metrics.DirectionsRequests.WithLabelValues("stale").Inc()
		t.logger.Debug("Discarding route for previous run", slog.String("session", res.SessionID.String()))
		return false
	}
	if res.Err != nil || len(res.Path) == 0 {
		metrics.DirectionsRequests.WithLabelValues("failed").Inc()
		t.logger.Info("No route drawn", slog.Any("error", res.Err))
		return false
	}

	t.renderer.DrawPath(res.Path)
	center, radius := boundingRegion(res.Path)
	t.renderer.SetVisibleRegion(center, radius)
	metrics.DirectionsRequests.WithLabelValues("ok").Inc()
	return true
}

func (t *Tracker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *Tracker) requestRoute(start, finish Coordinate) {
	if t.directions == nil {
		return
	}

	id := t.session.ID
	timeout := t.opts.DirectionsTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		path, err := t.directions.Route(ctx, start, finish)
		select {
		case t.routes <- RouteResult{SessionID: id, Path: path, Err: err}:
		case <-t.done:
		}
	}()
}
