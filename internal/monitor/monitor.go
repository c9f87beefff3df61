package monitor

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"speed-monitor/internal/models"
)

// Monitor runs probe cycles on a fixed interval until its context is cancelled.
// Cycles never overlap: each one probes, appends and notifies before the next can start.
type Monitor struct {
	prober   models.Prober
	sink     models.Sink
	observer models.Observer
	interval time.Duration
	cycles   atomic.Uint64
}

// New creates a new Monitor
func New(prober models.Prober, sink models.Sink, observer models.Observer, interval time.Duration) *Monitor {
	return &Monitor{
		prober:   prober,
		sink:     sink,
		observer: observer,
		interval: interval,
	}
}

// Run executes one cycle immediately and then one per interval.
// It returns nil once ctx is cancelled; cancellation is not a failure.
func (m *Monitor) Run(ctx context.Context) error {
	log.Infof("Monitor started, measuring every %v", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Immediate first cycle
	m.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Infof("Monitor stopped after %d cycles", m.Cycles())
			return nil
		case <-ticker.C:
			// a tick and cancellation can be ready together
			if ctx.Err() != nil {
				continue
			}
			m.cycle(ctx)
		}
	}
}

// Cycles returns the number of cycles whose result reached the sink
func (m *Monitor) Cycles() uint64 {
	return m.cycles.Load()
}
