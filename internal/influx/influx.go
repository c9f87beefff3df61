// Package influx mirrors results into an InfluxDB v2 bucket.
package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"speed-monitor/internal/models"
)

// Measurement is the point name written for every result
const Measurement = "speed_result"

// Options selects the server and bucket
type Options struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Sink implements the models.Sink interface on top of a blocking write API
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// New creates a Sink. No connection is made until the first Append.
func New(opts Options) (*Sink, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("influx url is required")
	}
	if opts.Org == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("influx org and bucket are required")
	}

	client := influxdb2.NewClient(opts.URL, opts.Token)
	return &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(opts.Org, opts.Bucket),
	}, nil
}

// Append writes one point for the result
func (s *Sink) Append(ctx context.Context, result models.Result) error {
	if err := s.writeAPI.WritePoint(ctx, point(result)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client
func (s *Sink) Close() {
	s.client.Close()
}

func point(result models.Result) *write.Point {
	status := "ok"
	fields := map[string]interface{}{
		"download_mbps": result.DownloadMbps,
	}
	if result.LatencyMs != nil {
		fields["latency_ms"] = *result.LatencyMs
	}
	if result.Failed() {
		status = "error"
		fields["error"] = result.ErrorMessage
	}

	return influxdb2.NewPoint(Measurement,
		map[string]string{"status": status},
		fields,
		result.Timestamp,
	)
}
