package models

import (
	"context"
	"time"
)

// Prober produces exactly one Result per call. Failures are encoded in the Result.
type Prober interface {
	Run(ctx context.Context) Result
}

// LatencyProber measures a single round trip. ok is false when no reply arrived.
type LatencyProber interface {
	Latency(ctx context.Context) (rtt time.Duration, ok bool)
}

// ThroughputProber measures download rate in megabits per second
type ThroughputProber interface {
	Throughput(ctx context.Context) (float64, error)
}

// Sink durably records results
type Sink interface {
	Append(ctx context.Context, result Result) error
}

// Observer receives every logged result for display
type Observer interface {
	Observe(result Result)
}
