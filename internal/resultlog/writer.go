// Package resultlog appends measurement results to a CSV file that survives restarts.
//
// The header is written only when the file does not exist yet, and every append
// opens, writes and closes the file, so no handle is held between cycles.
package resultlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"speed-monitor/internal/models"
)

// Header is the first line of every result log
const Header = "timestamp_utc,download_mbps,latency_ms,error_message"

// TimestampLayout renders UTC instants with seven fractional digits
const TimestampLayout = "2006-01-02T15:04:05.0000000Z07:00"

// DefaultFilename is used when no output path is configured
const DefaultFilename = "speed_results.csv"

// Writer implements the models.Sink interface for a CSV file
type Writer struct {
	path string
}

// New creates a Writer for path. The file is not touched until the first Append.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the log file location
func (w *Writer) Path() string {
	return w.path
}

// Append writes one record, preceded by the header when the file is new.
func (w *Writer) Append(ctx context.Context, result models.Result) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	newFile := false
	if _, statErr := os.Stat(w.path); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("stat result log: %w", statErr)
		}
		newFile = true
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close result log: %w", closeErr)
		}
	}()

	var b strings.Builder
	if newFile {
		b.WriteString(Header)
		b.WriteByte('\n')
	}
	b.WriteString(FormatLine(result))
	b.WriteByte('\n')

	// header and record go out in one write
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write result log: %w", err)
	}
	return nil
}

// FormatLine serializes a result without the trailing newline
func FormatLine(result models.Result) string {
	latency := ""
	if result.LatencyMs != nil {
		latency = strconv.FormatInt(*result.LatencyMs, 10)
	}

	return strings.Join([]string{
		result.Timestamp.UTC().Format(TimestampLayout),
		strconv.FormatFloat(result.DownloadMbps, 'f', 2, 64),
		latency,
		escapeField(result.ErrorMessage),
	}, ",")
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// escapeField swaps double quotes for single quotes and quotes the field only
// when it contains a separator. Quotes are never doubled.
func escapeField(value string) string {
	if value == "" {
		return ""
	}

	escaped := strings.ReplaceAll(value, `"`, `'`)
	escaped = lineBreaks.Replace(escaped)
	if strings.ContainsAny(escaped, `,"`) {
		return `"` + escaped + `"`
	}
	return escaped
}

// DefaultPath places the log next to the running executable
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), DefaultFilename), nil
}
