package model

import "time"

// Interaction is one persisted request/response cycle.
type Interaction struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	Success    bool      `db:"success" json:"success"`
	Error      string    `db:"error" json:"error,omitempty"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	Request    string    `db:"request" json:"request,omitempty"`
	Response   string    `db:"response" json:"response,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DailyStats is one aggregated row of interaction volume.
type DailyStats struct {
	Day       string `db:"day" json:"day"`
	Requests  int64  `db:"requests" json:"requests"`
	Failures  int64  `db:"failures" json:"failures"`
	AvgMillis int64  `db:"avg_ms" json:"avg_ms"`
}
