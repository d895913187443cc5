package run

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrLoopStopped = errors.New("run loop stopped")

type command struct {
	fn    func(*Tracker) error
	reply chan error
}

// Loop owns a Tracker and feeds it every event from a single goroutine:
// location batches, authorization changes, the one second tick, completed
// directions lookups and commands submitted through Do.
type Loop struct {
	tracker  *Tracker
	logger   *slog.Logger
	commands chan command
	stopped  chan struct{}
	interval time.Duration
}

func NewLoop(logger *slog.Logger, tracker *Tracker) *Loop {
	return &Loop{
		tracker:  tracker,
		logger:   logger,
		commands: make(chan command),
		stopped:  make(chan struct{}),
		interval: time.Second,
	}
}

// Do runs fn on the loop goroutine and returns its error. Once fn has been
// handed to the loop, Do waits for it to finish even if ctx is cancelled.
func (l *Loop) Do(ctx context.Context, fn func(*Tracker) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}

	select {
	case l.commands <- cmd:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-cmd.reply
}

// Snapshot reads the tracker state on the loop goroutine.
func (l *Loop) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := l.Do(ctx, func(t *Tracker) error {
		snap = t.Snapshot()
		return nil
	})
	return snap, err
}

// Run processes events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	defer l.tracker.Close()

	var (
		ticker        *time.Ticker
		tick          <-chan time.Time
		tickerSession uuid.UUID
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	updates := l.tracker.locations.Updates()
	authorization := l.tracker.locations.AuthorizationChanges()

	for {
		// A fresh ticker per session so a restarted run counts from zero.
		if l.tracker.State() == Running {
			if ticker == nil || tickerSession != l.tracker.SessionID() {
				stopTicker()
				ticker = time.NewTicker(l.interval)
				tick = ticker.C
				tickerSession = l.tracker.SessionID()
			}
		} else {
			stopTicker()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-l.commands:
			cmd.reply <- cmd.fn(l.tracker)
		case batch, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			l.tracker.HandleLocations(batch)
		case status, ok := <-authorization:
			if !ok {
				authorization = nil
				continue
			}
			l.tracker.HandleAuthorization(status)
		case <-tick:
			clock, err := l.tracker.Tick()
			if err != nil {
				l.logger.Error("Error advancing run clock", slog.Any("error", err))
				continue
			}
			l.logger.Debug("Tick", slog.String("clock", clock))
		case res := <-l.tracker.Routes():
			l.tracker.ApplyRoute(res)
		}
	}
}
