package db

// timestampLayout is the stored DATETIME format. Values are always UTC so
// they compare correctly with SQLite's datetime('now').
const timestampLayout = "2006-01-02 15:04:05"

// SQL query fragments used across multiple functions
const (
	// sqlSinceClause filters quota_samples by a lower time bound
	sqlSinceClause = "WHERE timestamp >= ?"
)
