// Package models defines data structures and domain types.
package models

import "time"

// APICall represents one logged request to the usage API.
type APICall struct {
	Timestamp  time.Time
	Error      string
	PollID     string
	Endpoint   string
	StatusCode int
	DurationMs int
	BodyBytes  int
	ID         int64
}
