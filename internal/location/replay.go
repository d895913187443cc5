package location

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/briangreenhill/runtracker/internal/run"
)

const DefaultDistanceFilter = 50.0

type ReplayOptions struct {
	// Interval between emitted positions. Zero emits as fast as the tracker
	// consumes them.
	Interval time.Duration
	// DistanceFilter drops points closer than this many meters to the
	// previously emitted one.
	DistanceFilter float64
}

// Replay plays back the track points of a GPX file as location updates.
type Replay struct {
	*base
	logger   *slog.Logger
	points   []run.Position
	interval time.Duration

	next     int
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

func NewReplay(logger *slog.Logger, g *gpx.GPX, opts ReplayOptions) *Replay {
	filter := opts.DistanceFilter
	if filter < 0 {
		filter = 0
	}

	return &Replay{
		// Unbuffered: Done only closes once the tracker has taken every point.
		base:     newBase(run.NotDetermined, 0),
		logger:   logger,
		points:   trackPositions(g, filter),
		interval: opts.Interval,
		done:     make(chan struct{}),
	}
}

// Len is the number of positions left after filtering.
func (r *Replay) Len() int {
	return len(r.points)
}

// Done is closed once every position has been delivered.
func (r *Replay) Done() <-chan struct{} {
	return r.done
}

// RequestAuthorization grants access straight away; a recorded file needs no
// permission prompt.
func (r *Replay) RequestAuthorization() {
	r.mu.Lock()
	r.status = run.Authorized
	r.mu.Unlock()

	if !r.announce(run.Authorized) {
		r.logger.Warn("Dropped authorization status", slog.String("status", run.Authorized.String()))
	}
}

func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return
	}
	r.active = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.play(ctx)
}

func (r *Replay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.active = false
	r.cancel()
}

func (r *Replay) play(ctx context.Context) {
	for {
		r.mu.Lock()
		if r.next >= len(r.points) {
			r.mu.Unlock()
			r.doneOnce.Do(func() { close(r.done) })
			return
		}
		p := r.points[r.next]
		r.mu.Unlock()

		if r.interval > 0 {
			timer := time.NewTimer(r.interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		if p.Timestamp.IsZero() {
			p.Timestamp = time.Now()
		}

		if err := r.deliver(ctx, []run.Position{p}); err != nil {
			return
		}
		r.mu.Lock()
		r.next++
		r.mu.Unlock()
	}
}

func trackPositions(g *gpx.GPX, filter float64) []run.Position {
	var positions []run.Position
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				p := run.Position{
					Coordinate: run.Coordinate{Latitude: point.Latitude, Longitude: point.Longitude},
					Timestamp:  point.Timestamp,
				}
				if n := len(positions); n > 0 && run.Distance(positions[n-1].Coordinate, p.Coordinate) < filter {
					continue
				}
				positions = append(positions, p)
			}
		}
	}
	return positions
}

// ReadGPXFile parses the GPX file at path.
func ReadGPXFile(path string) (*gpx.GPX, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading gpx file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("gpx file is a directory")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return gpx.ParseBytes(contents)
}
