package monitor

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"speed-monitor/internal/models"
)

// cycle runs one probe, append and observe sequence.
// Append failures are logged and scheduling continues.
func (m *Monitor) cycle(ctx context.Context) {
	if _, err := m.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Errorf("Failed to save result: %v", err)
	}
}

// RunOnce executes a single cycle and returns its result along with any
// persistence error. A cycle interrupted by cancellation is discarded.
func (m *Monitor) RunOnce(ctx context.Context) (models.Result, error) {
	if err := ctx.Err(); err != nil {
		return models.Result{}, err
	}

	result := m.prober.Run(ctx)
	if err := ctx.Err(); err != nil {
		// partial measurements never reach the log
		return result, err
	}

	appendErr := m.sink.Append(ctx, result)
	if appendErr != nil && ctx.Err() != nil {
		return result, ctx.Err()
	}
	if appendErr == nil {
		m.cycles.Add(1)
	}

	m.observer.Observe(result)
	return result, appendErr
}
