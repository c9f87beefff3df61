package resultlog

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speed-monitor/internal/models"
)

func TestParseLineRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 30, 12, 34, 56, 789123456, time.UTC)

	tests := []struct {
		name   string
		result models.Result
		msg    string
	}{
		{name: "success", result: models.Result{Timestamp: ts, DownloadMbps: 93.4249, LatencyMs: latency(12)}},
		{name: "zero latency", result: models.Result{Timestamp: ts, DownloadMbps: 0.004, LatencyMs: latency(0)}},
		{name: "no latency", result: models.Result{Timestamp: ts, DownloadMbps: 250}},
		{name: "plain error", result: models.Result{Timestamp: ts, ErrorMessage: "context deadline exceeded"}, msg: "context deadline exceeded"},
		{name: "error with comma", result: models.Result{Timestamp: ts, LatencyMs: latency(33), ErrorMessage: "timeout, retrying"}, msg: "timeout, retrying"},
		{name: "error with quotes", result: models.Result{Timestamp: ts, ErrorMessage: `Get "http://h/1MB.bin": EOF, closed`}, msg: "Get 'http://h/1MB.bin': EOF, closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatLine(tt.result)
			got, err := ParseLine(line)
			require.NoError(t, err)

			assert.True(t, got.Timestamp.Equal(tt.result.Timestamp.Truncate(100*time.Nanosecond)), "timestamp %v", got.Timestamp)
			assert.Equal(t, math.Round(tt.result.DownloadMbps*100)/100, got.DownloadMbps)
			assert.Equal(t, tt.result.LatencyMs, got.LatencyMs)
			assert.Equal(t, tt.msg, got.ErrorMessage)
		})
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "2024-01-01T00:00:00.0000000Z,1.00,"},
		{name: "bad timestamp", line: "yesterday,1.00,,"},
		{name: "bad rate", line: "2024-01-01T00:00:00.0000000Z,fast,,"},
		{name: "bad latency", line: "2024-01-01T00:00:00.0000000Z,1.00,12.5,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	w := New(path)

	_, err := w.Last()
	require.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, os.WriteFile(path, []byte(Header+"\n"), 0o644))
	_, err = w.Last()
	require.ErrorIs(t, err, ErrEmpty)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(context.Background(), models.Result{Timestamp: ts, DownloadMbps: 10}))
	require.NoError(t, w.Append(context.Background(), models.Result{Timestamp: ts.Add(15 * time.Minute), ErrorMessage: "a, b"}))

	last, err := w.Last()
	require.NoError(t, err)
	assert.True(t, last.Timestamp.Equal(ts.Add(15*time.Minute)))
	assert.Equal(t, "a, b", last.ErrorMessage)
	assert.False(t, strings.Contains(last.ErrorMessage, `"`))
}
