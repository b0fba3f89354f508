package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

// GetQuotaSamples returns samples recorded at or after since, oldest first.
func (db *DB) GetQuotaSamples(since time.Time) ([]models.QuotaSample, error) {
	query := `
		SELECT id, timestamp, poll_id, limit_type, percentage, current_value, usage, next_reset_time
		FROM quota_samples
		` + sqlSinceClause + `
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, sinceArg(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query quota samples: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var samples []models.QuotaSample
	for rows.Next() {
		var s models.QuotaSample
		var ts string
		var pollID sql.NullString

		err := rows.Scan(
			&s.ID,
			&ts,
			&pollID,
			&s.LimitType,
			&s.Percentage,
			&s.CurrentValue,
			&s.Usage,
			&s.NextResetTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quota sample: %w", err)
		}

		s.Timestamp, _ = parseTimeString(ts)
		s.PollID = pollID.String
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// GetHistoryStats builds the history view for a time range ending at now.
func (db *DB) GetHistoryStats(timeRange models.TimeRange, now time.Time) (*models.HistoryStats, error) {
	since := timeRange.Since(now)

	samples, err := db.GetQuotaSamples(since)
	if err != nil {
		return nil, err
	}

	calls, err := db.GetTotalStats(since)
	if err != nil {
		return nil, err
	}

	stats := &models.HistoryStats{
		TimeRange: timeRange,
		Series:    models.BuildSeries(samples),
		Calls:     calls,
	}

	polls := make(map[string]struct{})
	for _, s := range samples {
		if s.PollID != "" {
			polls[s.PollID] = struct{}{}
		}
	}
	stats.TotalPolls = len(polls)

	if len(samples) > 0 {
		stats.FirstDataPoint = samples[0].Timestamp
		stats.LastDataPoint = samples[len(samples)-1].Timestamp
	}

	return stats, nil
}

// CleanupOldSamples deletes samples and call logs older than the given
// number of days.
func (db *DB) CleanupOldSamples(olderThanDays int) (int64, error) {
	windowStr := fmt.Sprintf("-%d days", olderThanDays)

	var total int64
	for _, table := range []string{"quota_samples", "api_calls"} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE timestamp < datetime('now', ?)`, table)
		result, err := db.ExecContext(context.Background(), query, windowStr)
		if err != nil {
			return total, fmt.Errorf("failed to cleanup %s: %w", table, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			total += n
		}
	}

	return total, nil
}
