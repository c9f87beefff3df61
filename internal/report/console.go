package report

import (
	"fmt"
	"io"
	"strconv"

	"speed-monitor/internal/models"
	"speed-monitor/internal/resultlog"
)

// Console prints one summary line per result, implementing models.Observer
type Console struct {
	w io.Writer
}

// NewConsole creates a Console writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Observe writes the summary line for result
func (c *Console) Observe(result models.Result) {
	fmt.Fprintln(c.w, Summary(result))
}

// Summary formats a result for humans
func Summary(result models.Result) string {
	latency := "n/a"
	if result.LatencyMs != nil {
		latency = strconv.FormatInt(*result.LatencyMs, 10)
	}

	status := "completed"
	if result.Failed() {
		status = "error: " + result.ErrorMessage
	}

	return fmt.Sprintf("[%s] Download %.2f Mbps, latency %s ms (%s).",
		result.Timestamp.UTC().Format(resultlog.TimestampLayout),
		result.DownloadMbps,
		latency,
		status,
	)
}
