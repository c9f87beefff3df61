// Package download measures throughput by timing a full HTTP download.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// minElapsed keeps implausibly fast downloads from producing an infinite rate
const minElapsed = time.Millisecond

// Tester implements the models.ThroughputProber interface
type Tester struct {
	url    string
	client *http.Client
}

// New creates a Tester that downloads url with a fixed client timeout
func New(url string, timeout time.Duration) *Tester {
	return &Tester{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Throughput downloads the test object once and returns the rate in Mbps
func (t *Tester) Throughput(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("empty response body")
	}
	elapsed := time.Since(start)

	log.Debugf("Downloaded %s in %v from %s", humanize.Bytes(uint64(n)), elapsed, t.url)
	return Rate(n, elapsed), nil
}

// Rate converts a byte count and duration to megabits per second
func Rate(bytes int64, elapsed time.Duration) float64 {
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	megabits := float64(bytes) * 8 / 1_000_000
	return megabits / elapsed.Seconds()
}
