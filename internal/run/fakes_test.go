package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

type fakeLocations struct {
	started       bool
	background    bool
	authRequests  int
	current       Coordinate
	hasCurrent    bool
	updates       chan []Position
	authorization chan AuthorizationStatus
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{
		updates:       make(chan []Position),
		authorization: make(chan AuthorizationStatus),
	}
}

func (f *fakeLocations) RequestAuthorization() { f.authRequests++ }
func (f *fakeLocations) Start() { f.started = true }
func (f *fakeLocations) Stop() { f.started = false }
func (f *fakeLocations) SetBackgroundUpdates(on bool) { f.background = on }
func (f *fakeLocations) Current() (Coordinate, bool) { return f.current, f.hasCurrent }
func (f *fakeLocations) Updates() <-chan []Position { return f.updates }
func (f *fakeLocations) AuthorizationChanges() <-chan AuthorizationStatus {
	return f.authorization
}

type marker struct {
	point Coordinate
	label string
}

type fakeRenderer struct {
	mu      sync.Mutex
	center  Coordinate
	radius  float64
	markers []marker
	paths   [][]Coordinate
}

func (f *fakeRenderer) SetVisibleRegion(center Coordinate, radius float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.center, f.radius = center, radius
}

func (f *fakeRenderer) AddMarker(point Coordinate, label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = append(f.markers, marker{point, label})
}

func (f *fakeRenderer) ClearMarkers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = nil
}

func (f *fakeRenderer) DrawPath(points []Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, points)
}

func (f *fakeRenderer) ClearPaths() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = nil
}

func (f *fakeRenderer) pathCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

type fakeDirections struct {
	mu    sync.Mutex
	calls int
	path  []Coordinate
	err   error
}

func (f *fakeDirections) Route(ctx context.Context, start, finish Coordinate) ([]Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.path != nil {
		return f.path, nil
	}
	return []Coordinate{start, finish}, nil
}

func (f *fakeDirections) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeComposer struct {
	available bool
	err       error
	sent      []string
}

func (f *fakeComposer) CanCompose() bool { return f.available }

func (f *fakeComposer) Compose(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

var errNoRoute = errors.New("no route found")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	tracker    *Tracker
	locations  *fakeLocations
	renderer   *fakeRenderer
	directions *fakeDirections
	composer   *fakeComposer
}

func newHarness() *harness {
	h := &harness{
		locations:  newFakeLocations(),
		renderer:   &fakeRenderer{},
		directions: &fakeDirections{},
		composer:   &fakeComposer{available: true},
	}
	h.tracker = NewTracker(discardLogger(), Dependencies{
		Locations:  h.locations,
		Renderer:   h.renderer,
		Directions: h.directions,
		Composer:   h.composer,
	}, Options{})
	h.tracker.HandleAuthorization(Authorized)
	return h
}
