package models

import "time"

// Result is the outcome of one probe cycle
type Result struct {
	Timestamp    time.Time `json:"timestamp"`
	DownloadMbps float64   `json:"download_mbps"`
	LatencyMs    *int64    `json:"latency_ms,omitempty"` // nil when no echo reply
	ErrorMessage string    `json:"error_message,omitempty"`
}

// HasLatency reports whether the latency probe produced a value
func (r Result) HasLatency() bool {
	return r.LatencyMs != nil
}

// Failed reports whether the throughput probe failed
func (r Result) Failed() bool {
	return r.ErrorMessage != ""
}
