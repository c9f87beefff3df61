package resultlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speed-monitor/internal/models"
)

func latency(v int64) *int64 {
	return &v
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"), "log must end with a newline")
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC)

	tests := []struct {
		name     string
		result   models.Result
		expected string
	}{
		{
			name:     "success",
			result:   models.Result{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DownloadMbps: 93.42, LatencyMs: latency(12)},
			expected: "2024-01-01T00:00:00.0000000Z,93.42,12,",
		},
		{
			name:     "failure with comma is quoted",
			result:   models.Result{Timestamp: ts, ErrorMessage: "connection refused, retrying"},
			expected: `2024-01-01T00:15:00.0000000Z,0.00,,"connection refused, retrying"`,
		},
		{
			name:     "failure without separator is bare",
			result:   models.Result{Timestamp: ts, LatencyMs: latency(7), ErrorMessage: "unexpected status: 503 Service Unavailable"},
			expected: "2024-01-01T00:15:00.0000000Z,0.00,7,unexpected status: 503 Service Unavailable",
		},
		{
			name:     "double quotes become single quotes",
			result:   models.Result{Timestamp: ts, ErrorMessage: `Get "https://x": EOF`},
			expected: "2024-01-01T00:15:00.0000000Z,0.00,,Get 'https://x': EOF",
		},
		{
			name:     "quotes and comma",
			result:   models.Result{Timestamp: ts, ErrorMessage: `Get "https://x": timeout, retrying`},
			expected: `2024-01-01T00:15:00.0000000Z,0.00,,"Get 'https://x': timeout, retrying"`,
		},
		{
			name:     "line breaks stay on one line",
			result:   models.Result{Timestamp: ts, ErrorMessage: "first\nsecond"},
			expected: "2024-01-01T00:15:00.0000000Z,0.00,,first second",
		},
		{
			name:     "rate rounds to two decimals",
			result:   models.Result{Timestamp: ts, DownloadMbps: 15.999, LatencyMs: latency(0)},
			expected: "2024-01-01T00:15:00.0000000Z,16.00,0,",
		},
		{
			name:     "local time is converted to UTC",
			result:   models.Result{Timestamp: time.Date(2024, 1, 1, 2, 0, 0, 1234500, time.FixedZone("EET", 7200)), DownloadMbps: 1},
			expected: "2024-01-01T00:00:00.0012345Z,1.00,,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatLine(tt.result))
		})
	}
}

func TestAppendFreshLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	w := New(path)

	r := models.Result{
		Timestamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DownloadMbps: 16,
		LatencyMs:    latency(10),
	}
	require.NoError(t, w.Append(context.Background(), r))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "2024-01-01T00:00:00.0000000Z,16.00,10,", lines[1])
}

func TestAppendHeaderWrittenOnceAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// each Writer stands in for a separate process run
	for run := 0; run < 3; run++ {
		w := New(path)
		for i := 0; i < 2; i++ {
			r := models.Result{Timestamp: ts.Add(time.Duration(run*2+i) * 15 * time.Minute), DownloadMbps: float64(run + 1)}
			require.NoError(t, w.Append(context.Background(), r))
		}
	}

	lines := readLines(t, path)
	require.Len(t, lines, 7)
	headers := 0
	for _, l := range lines {
		if l == Header {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
	assert.Equal(t, Header, lines[0])

	// records stay in append order
	var prev time.Time
	for _, l := range lines[1:] {
		r, err := ParseLine(l)
		require.NoError(t, err)
		assert.True(t, r.Timestamp.After(prev))
		prev = r.Timestamp
	}
}

func TestAppendPreservesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	existing := Header + "\n2023-12-31T23:45:00.0000000Z,50.00,20,\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	r := models.Result{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ErrorMessage: "timeout, retrying"}
	require.NoError(t, New(path).Append(context.Background(), r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing+`2024-01-01T00:00:00.0000000Z,0.00,,"timeout, retrying"`+"\n", string(data))
}

func TestAppendExistingEmptyFileGetsNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	r := models.Result{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DownloadMbps: 1}
	require.NoError(t, New(path).Append(context.Background(), r))

	lines := readLines(t, path)
	assert.Equal(t, []string{"2024-01-01T00:00:00.0000000Z,1.00,,"}, lines)
}

func TestAppendWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := New(filepath.Join(blocker, "speed_results.csv")).Append(context.Background(), models.Result{})
	require.Error(t, err)
}

func TestAppendCancelledLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed_results.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(path).Append(ctx, models.Result{Timestamp: time.Now()})
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, DefaultFilename, filepath.Base(path))
	assert.True(t, filepath.IsAbs(path))
}
