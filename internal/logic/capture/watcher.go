package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/gsy/lightstore/internal/debug"
	"github.com/gsy/lightstore/internal/logic/monitor"
)

// Watcher runs the steady-state loop: poll the weight monitor at a
// fixed interval and drive a capture on every placement. Read and
// capture failures are logged and the loop moves on; only context
// cancellation stops it.
type Watcher struct {
	monitor  *monitor.Monitor
	orch     *Orchestrator
	interval time.Duration
}

// NewWatcher creates a Watcher polling every interval. An interval of
// zero or less defaults to 500ms.
func NewWatcher(mon *monitor.Monitor, orch *Orchestrator, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{
		monitor:  mon,
		orch:     orch,
		interval: interval,
	}
}

// Run polls until the context is cancelled and returns the context
// error.
func (w *Watcher) Run(ctx context.Context) error {
	debug.Verbose("Watcher: polling every %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res := w.monitor.Poll()
		switch res.Kind {
		case monitor.ReadError:
			debug.Error(fmt.Errorf("scale read error: %w", res.Err))
		case monitor.Placement:
			debug.Weight(res.Weight)
			debug.Event(res.Delta)
			debug.Verbose("idle -> capturing")
			if err := w.orch.CaptureOnEvent(res.Delta); err != nil {
				debug.Error(fmt.Errorf("capture failed: %w", err))
			}
			debug.Verbose("capturing -> idle")
		default:
			debug.Weight(res.Weight)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}
