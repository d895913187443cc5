// Package mapview keeps what has been drawn on the run map so it can be
// served to a client.
package mapview

import (
	"log/slog"
	"sync"

	"github.com/briangreenhill/runtracker/internal/run"
)

type Marker struct {
	Point run.Coordinate `json:"point"`
	Label string         `json:"label"`
}

type Region struct {
	Center       run.Coordinate `json:"center"`
	RadiusMeters float64        `json:"radius_m"`
}

type View struct {
	Region  *Region            `json:"region,omitempty"`
	Markers []Marker           `json:"markers"`
	Paths   [][]run.Coordinate `json:"paths"`
}

// State is a run.MapRenderer that records every draw call.
type State struct {
	mu     sync.RWMutex
	logger *slog.Logger
	view   View
}

func New(logger *slog.Logger) *State {
	return &State{logger: logger}
}

func (s *State) SetVisibleRegion(center run.Coordinate, radiusMeters float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Region = &Region{Center: center, RadiusMeters: radiusMeters}
}

func (s *State) AddMarker(point run.Coordinate, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Markers = append(s.view.Markers, Marker{Point: point, Label: label})
	s.logger.Debug("Marker added", slog.String("label", label))
}

func (s *State) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Markers = nil
}

func (s *State) DrawPath(points []run.Coordinate) {
	path := append([]run.Coordinate(nil), points...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Paths = append(s.view.Paths, path)
	s.logger.Debug("Path drawn", slog.Int("points", len(path)))
}

func (s *State) ClearPaths() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Paths = nil
}

// View returns a copy of the current map contents.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Markers: append([]Marker{}, s.view.Markers...),
		Paths:   make([][]run.Coordinate, 0, len(s.view.Paths)),
	}
	if s.view.Region != nil {
		r := *s.view.Region
		v.Region = &r
	}
	for _, p := range s.view.Paths {
		v.Paths = append(v.Paths, append([]run.Coordinate(nil), p...))
	}
	return v
}
