// Package location provides the position sources a run can be tracked from.
package location

import (
	"context"
	"sync"

	"github.com/briangreenhill/runtracker/internal/run"
)

// base holds what every provider shares: the outgoing channels, the last
// known coordinate and the authorization status.
type base struct {
	mu         sync.Mutex
	active     bool
	background bool
	current    run.Coordinate
	hasCurrent bool
	status     run.AuthorizationStatus

	updates       chan []run.Position
	authorization chan run.AuthorizationStatus
}

// newBase announces the initial status so the tracker sees it on its first
// pass through the loop.
func newBase(status run.AuthorizationStatus, buffer int) *base {
	b := &base{
		status:        status,
		updates:       make(chan []run.Position, buffer),
		authorization: make(chan run.AuthorizationStatus, 4),
	}
	b.authorization <- status
	return b
}

func (b *base) Updates() <-chan []run.Position {
	return b.updates
}

func (b *base) AuthorizationChanges() <-chan run.AuthorizationStatus {
	return b.authorization
}

func (b *base) Current() (run.Coordinate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.hasCurrent
}

func (b *base) SetBackgroundUpdates(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.background = enabled
}

func (b *base) BackgroundUpdates() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.background
}

func (b *base) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *base) Status() run.AuthorizationStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *base) SetAuthorization(ctx context.Context, status run.AuthorizationStatus) error {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()

	select {
	case b.authorization <- status:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// announce is called from the tracker's own goroutine, so it must not block
// on the channel that goroutine drains.
func (b *base) announce(status run.AuthorizationStatus) bool {
	select {
	case b.authorization <- status:
		return true
	default:
		return false
	}
}

func (b *base) record(c run.Coordinate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = c
	b.hasCurrent = true
}

func (b *base) deliver(ctx context.Context, batch []run.Position) error {
	if len(batch) == 0 {
		return nil
	}

	select {
	case b.updates <- batch:
		b.record(batch[len(batch)-1].Coordinate)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
