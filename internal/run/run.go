package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Position struct {
	Coordinate
	Timestamp time.Time `json:"timestamp"`
}

type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Unit string

const (
	Miles      Unit = "MI"
	Kilometers Unit = "KM"
)

// ParseUnit accepts the stored codes as well as the long and short names.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mi", "mile", "miles":
		return Miles, nil
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return Kilometers, nil
	}
	return "", fmt.Errorf("unknown distance unit %q", s)
}

func (u Unit) Name() string {
	if u == Kilometers {
		return "kilometers"
	}
	return "miles"
}

// Convert turns meters into the unit's display value.
func (u Unit) Convert(meters float64) float64 {
	if u == Kilometers {
		return meters * 0.001
	}
	return meters * 0.0006213712
}

type Session struct {
	ID                uuid.UUID  `json:"id"`
	State             State      `json:"state"`
	Positions         []Position `json:"positions"`
	ElapsedSeconds    int        `json:"elapsed_seconds"`
	TotalDistance     float64    `json:"total_distance_m"`
	BackgroundUpdates bool       `json:"background_updates"`

	seen map[Coordinate]struct{}
}

func newSession() *Session {
	return &Session{
		ID:   uuid.New(),
		seen: make(map[Coordinate]struct{}),
	}
}

// add appends p unless its coordinate was already recorded.
func (s *Session) add(p Position) bool {
	if _, ok := s.seen[p.Coordinate]; ok {
		return false
	}
	s.seen[p.Coordinate] = struct{}{}
	s.Positions = append(s.Positions, p)
	return true
}

type Snapshot struct {
	Session
	Clock   string `json:"clock"`
	Summary string `json:"summary,omitempty"`
	Unit    Unit   `json:"unit"`
}
