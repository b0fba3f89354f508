package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

var timeFormats = []string{
	timestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// InsertAPICall logs an API call to the database.
func (db *DB) InsertAPICall(call *models.APICall) error {
	query := `
		INSERT INTO api_calls (
			timestamp, poll_id, endpoint, status_code, duration_ms, body_bytes, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(context.Background(), query,
		formatTimestamp(call.Timestamp),
		nullString(call.PollID),
		call.Endpoint,
		call.StatusCode,
		call.DurationMs,
		call.BodyBytes,
		nullString(call.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert API call: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		call.ID = id
	}

	return nil
}

// GetRecentAPICalls returns the most recent API calls.
func (db *DB) GetRecentAPICalls(limit int) ([]models.APICall, error) {
	query := `
		SELECT id, timestamp, poll_id, endpoint, status_code, duration_ms, body_bytes, error
		FROM api_calls
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent API calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var calls []models.APICall
	for rows.Next() {
		var call models.APICall
		var ts string
		var pollID, errStr sql.NullString

		err := rows.Scan(
			&call.ID,
			&ts,
			&pollID,
			&call.Endpoint,
			&call.StatusCode,
			&call.DurationMs,
			&call.BodyBytes,
			&errStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API call: %w", err)
		}

		call.Timestamp, _ = parseTimeString(ts)
		call.PollID = pollID.String
		call.Error = errStr.String
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// GetHourlyStats returns aggregated call statistics grouped by hour.
func (db *DB) GetHourlyStats(hours int) ([]models.HourlyStats, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d %H:00:00', timestamp) as hour,
			COUNT(*) as total_calls,
			COALESCE(SUM(body_bytes), 0) as total_bytes,
			COALESCE(AVG(duration_ms), 0) as avg_duration,
			SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END) as error_count
		FROM api_calls
		WHERE timestamp >= datetime('now', ?)
		GROUP BY hour
		ORDER BY hour DESC
	`

	rows, err := db.QueryContext(context.Background(), query, fmt.Sprintf("-%d hours", hours))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var stats []models.HourlyStats
	for rows.Next() {
		var s models.HourlyStats
		var hourStr string

		err := rows.Scan(
			&hourStr,
			&s.TotalCalls,
			&s.TotalBytes,
			&s.AvgDurationMs,
			&s.ErrorCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hourly stats: %w", err)
		}

		s.Hour, _ = time.Parse(timestampLayout, hourStr)
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetTotalStats returns overall call statistics since the given time. A zero
// since covers all rows.
func (db *DB) GetTotalStats(since time.Time) (*models.TotalStats, error) {
	query := `
		SELECT
			COUNT(*) as total_calls,
			COUNT(DISTINCT poll_id) as total_polls,
			COALESCE(SUM(body_bytes), 0) as total_bytes,
			COALESCE(AVG(duration_ms), 0) as avg_duration,
			COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0) as error_count,
			MAX(timestamp) as last_call
		FROM api_calls
		WHERE timestamp >= ?
	`

	var stats models.TotalStats
	var lastCall sql.NullString
	err := db.QueryRowContext(context.Background(), query, sinceArg(since)).Scan(
		&stats.TotalCalls,
		&stats.TotalPolls,
		&stats.TotalBytes,
		&stats.AvgDurationMs,
		&stats.ErrorCount,
		&lastCall,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query total stats: %w", err)
	}

	if lastCall.Valid {
		stats.LastCall, _ = parseTimeString(lastCall.String)
	}

	return &stats, nil
}

// InsertQuotaSamples records one poll's quota readings in a transaction.
func (db *DB) InsertQuotaSamples(samples []models.QuotaSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(context.Background(), `
		INSERT INTO quota_samples (
			timestamp, poll_id, limit_type, percentage, current_value, usage, next_reset_time
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare quota sample insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range samples {
		s := &samples[i]
		result, err := stmt.ExecContext(context.Background(),
			formatTimestamp(s.Timestamp),
			nullString(s.PollID),
			s.LimitType,
			s.Percentage,
			s.CurrentValue,
			s.Usage,
			s.NextResetTime,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quota sample: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			s.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quota samples: %w", err)
	}
	return nil
}

// sinceArg converts a lower time bound to a query argument.
func sinceArg(since time.Time) string {
	if since.IsZero() {
		return "0000-00-00 00:00:00"
	}
	return since.UTC().Format(timestampLayout)
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
