package database

import (
	"context"
	"database/sql"
	"fmt"

	"speed-monitor/internal/models"
	"speed-monitor/internal/resultlog"
)

// Append saves a result as one row, implementing models.Sink
func (db *DB) Append(ctx context.Context, result models.Result) error {
	query := `
        INSERT INTO speed_results (timestamp, download_mbps, latency_ms, error_message)
        VALUES (?, ?, ?, ?)
    `

	var latency sql.NullInt64
	if result.LatencyMs != nil {
		latency = sql.NullInt64{Int64: *result.LatencyMs, Valid: true}
	}
	var errMsg sql.NullString
	if result.ErrorMessage != "" {
		errMsg = sql.NullString{String: result.ErrorMessage, Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		result.Timestamp.UTC().Format(resultlog.TimestampLayout),
		result.DownloadMbps,
		latency,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("insert speed result: %w", err)
	}
	return nil
}

// Count returns the number of stored results
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM speed_results").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
