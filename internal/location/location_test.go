package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/briangreenhill/runtracker/internal/run"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Morning Run</name>
    <trkseg>
      <trkpt lat="51.5000" lon="-0.1200"><time>2024-05-01T07:00:00Z</time></trkpt>
      <trkpt lat="51.5001" lon="-0.1200"><time>2024-05-01T07:00:05Z</time></trkpt>
      <trkpt lat="51.5010" lon="-0.1200"><time>2024-05-01T07:00:30Z</time></trkpt>
      <trkpt lat="51.5020" lon="-0.1200"><time>2024-05-01T07:01:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseSample(t *testing.T) *gpx.GPX {
	t.Helper()
	g, err := gpx.ParseBytes([]byte(sampleGPX))
	if err != nil {
		t.Fatalf("parse gpx: %v", err)
	}
	return g
}

func TestReplayAppliesDistanceFilter(t *testing.T) {
	g := parseSample(t)

	if n := NewReplay(discard(), g, ReplayOptions{}).Len(); n != 4 {
		t.Errorf("no filter: got %d positions, want 4", n)
	}
	// The second point is about 11m from the first.
	if n := NewReplay(discard(), g, ReplayOptions{DistanceFilter: DefaultDistanceFilter}).Len(); n != 3 {
		t.Errorf("50m filter: got %d positions, want 3", n)
	}
}

func TestReplayEmitsPositionsWhileStarted(t *testing.T) {
	r := NewReplay(discard(), parseSample(t), ReplayOptions{DistanceFilter: DefaultDistanceFilter})

	if status := <-r.AuthorizationChanges(); status != run.NotDetermined {
		t.Fatalf("got initial status %s, want not_determined", status)
	}
	r.RequestAuthorization()
	if status := <-r.AuthorizationChanges(); status != run.Authorized {
		t.Fatalf("got status %s, want authorized", status)
	}

	r.Start()
	defer r.Stop()

	var got []run.Position
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case batch := <-r.Updates():
			got = append(got, batch...)
		case <-timeout:
			t.Fatalf("timed out after %d positions", len(got))
		}
	}

	select {
	case <-r.Done():
	case <-timeout:
		t.Fatalf("replay did not finish")
	}

	want := time.Date(2024, 5, 1, 7, 1, 0, 0, time.UTC)
	if !got[2].Timestamp.Equal(want) {
		t.Errorf("got timestamp %v, want %v", got[2].Timestamp, want)
	}
	if c, ok := r.Current(); !ok || c != got[2].Coordinate {
		t.Errorf("got current %v, want %v", c, got[2].Coordinate)
	}
}

func TestReplayStopPausesPlayback(t *testing.T) {
	r := NewReplay(discard(), parseSample(t), ReplayOptions{Interval: time.Hour})
	r.Start()
	r.Stop()
	r.Stop()

	select {
	case batch := <-r.Updates():
		t.Fatalf("unexpected batch after stop: %v", batch)
	case <-time.After(20 * time.Millisecond):
	}
	if r.Active() {
		t.Errorf("replay still active")
	}
}

func TestReadGPXFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.gpx")
	if err := os.WriteFile(path, []byte(sampleGPX), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	g, err := ReadGPXFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(g.Tracks) != 1 || g.Tracks[0].Name != "Morning Run" {
		t.Errorf("unexpected tracks: %+v", g.Tracks)
	}

	if _, err := ReadGPXFile(dir); err == nil {
		t.Errorf("expected error for directory")
	}
	if _, err := ReadGPXFile(filepath.Join(dir, "missing.gpx")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestPush(t *testing.T) {
	p := NewPush(discard(), run.Authorized)
	<-p.AuthorizationChanges()
	ctx := context.Background()

	batch := []run.Position{{Coordinate: run.Coordinate{Latitude: 1, Longitude: 2}}}
	received := make(chan []run.Position, 1)
	go func() { received <- <-p.Updates() }()
	if err := p.Publish(ctx, batch); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := <-received; len(got) != 1 || got[0].Latitude != 1 {
		t.Errorf("unexpected batch %v", got)
	}
	if c, ok := p.Current(); !ok || c.Longitude != 2 {
		t.Errorf("got current %v", c)
	}

	p.Start()
	if !p.Active() {
		t.Errorf("push not active after start")
	}
	go func() { received <- <-p.Updates() }()
	if err := p.Publish(ctx, batch); err != nil {
		t.Fatalf("publish while active: %v", err)
	}
	<-received

	p.SetBackgroundUpdates(true)
	if !p.BackgroundUpdates() {
		t.Errorf("background flag not set")
	}

	p.RequestAuthorization()
	if status := <-p.AuthorizationChanges(); status != run.Authorized {
		t.Errorf("got %s, want authorized", status)
	}

	if err := p.SetAuthorization(ctx, run.Denied); err != nil {
		t.Fatalf("set authorization: %v", err)
	}
	if status := <-p.AuthorizationChanges(); status != run.Denied {
		t.Errorf("got %s, want denied", status)
	}
}

func TestPushPublishHonoursContext(t *testing.T) {
	p := NewPush(discard(), run.Authorized)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	batch := []run.Position{{Coordinate: run.Coordinate{Latitude: 1, Longitude: 2}}}
	if err := p.Publish(ctx, batch); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
	if _, ok := p.Current(); ok {
		t.Errorf("current position set for an undelivered batch")
	}
}
