package location

import (
	"context"
	"log/slog"

	"github.com/briangreenhill/runtracker/internal/run"
)

// Push is fed by a device over the HTTP API.
type Push struct {
	*base
	logger *slog.Logger
}

func NewPush(logger *slog.Logger, status run.AuthorizationStatus) *Push {
	return &Push{base: newBase(status, 0), logger: logger}
}

// RequestAuthorization re-announces the current status so the tracker acts on
// it. Devices answer the prompt through SetAuthorization.
func (p *Push) RequestAuthorization() {
	status := p.Status()
	p.logger.Info("Location authorization requested", slog.String("status", status.String()))
	if status != run.NotDetermined && !p.announce(status) {
		p.logger.Warn("Dropped authorization status", slog.String("status", status.String()))
	}
}

func (p *Push) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
}

func (p *Push) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// Publish hands a batch to the tracker and returns once it has been taken.
// Batches are delivered whether or not a run is active; the tracker only
// records them while running.
func (p *Push) Publish(ctx context.Context, batch []run.Position) error {
	return p.deliver(ctx, batch)
}
