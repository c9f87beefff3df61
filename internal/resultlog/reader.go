package resultlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"speed-monitor/internal/models"
)

// ErrEmpty is returned by Last when the log holds no records
var ErrEmpty = errors.New("result log has no records")

// ParseLine reads one record line back into a Result
func ParseLine(line string) (models.Result, error) {
	var result models.Result

	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = 4
	fields, err := r.Read()
	if err != nil {
		return result, fmt.Errorf("parse record: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return result, fmt.Errorf("parse timestamp %q: %w", fields[0], err)
	}
	result.Timestamp = ts.UTC()

	rate, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return result, fmt.Errorf("parse download rate %q: %w", fields[1], err)
	}
	result.DownloadMbps = rate

	if fields[2] != "" {
		ms, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return result, fmt.Errorf("parse latency %q: %w", fields[2], err)
		}
		result.LatencyMs = &ms
	}

	result.ErrorMessage = fields[3]
	return result, nil
}

// Last returns the most recent record in the log
func (w *Writer) Last() (models.Result, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Result{}, ErrEmpty
		}
		return models.Result{}, fmt.Errorf("open result log: %w", err)
	}
	defer f.Close()

	last := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || line == Header {
			continue
		}
		last = line
	}
	if err := scanner.Err(); err != nil {
		return models.Result{}, fmt.Errorf("read result log: %w", err)
	}
	if last == "" {
		return models.Result{}, ErrEmpty
	}

	return ParseLine(last)
}
