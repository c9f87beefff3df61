// Package probe runs the latency and throughput measurements that make up one cycle.
package probe

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"speed-monitor/internal/models"
)

// Engine implements the models.Prober interface
type Engine struct {
	latency    models.LatencyProber
	throughput models.ThroughputProber
	now        func() time.Time
}

// New creates an Engine from the two sub-probes
func New(latency models.LatencyProber, throughput models.ThroughputProber) *Engine {
	return &Engine{
		latency:    latency,
		throughput: throughput,
		now:        time.Now,
	}
}

// Run measures latency and throughput concurrently and joins them into one Result.
// Latency failures only leave LatencyMs unset; throughput failures are reported
// through ErrorMessage with a zero rate.
func (e *Engine) Run(ctx context.Context) models.Result {
	result := models.Result{Timestamp: e.now().UTC()}

	var (
		wg      sync.WaitGroup
		rtt     time.Duration
		replied bool
		rate    float64
		dlErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rtt, replied = e.latency.Latency(ctx)
	}()
	go func() {
		defer wg.Done()
		rate, dlErr = e.throughput.Throughput(ctx)
	}()
	wg.Wait()

	if replied && rtt >= 0 {
		ms := rtt.Milliseconds()
		result.LatencyMs = &ms
	}

	if dlErr != nil {
		log.Debugf("Throughput probe failed: %v", dlErr)
		result.ErrorMessage = dlErr.Error()
		if result.ErrorMessage == "" {
			result.ErrorMessage = "download failed"
		}
		return result
	}
	result.DownloadMbps = rate

	return result
}
