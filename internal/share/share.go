package share

import (
	"fmt"
	"io"
	"sync"
)

// Printer composes messages by writing them out, one per line.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) CanCompose() bool {
	return p != nil && p.w != nil
}

func (p *Printer) Compose(text string) error {
	if !p.CanCompose() {
		return fmt.Errorf("no output to compose to")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.w, text); err != nil {
		return fmt.Errorf("error writing message: %w", err)
	}
	return nil
}
