package models

import "time"

// RaceSubmission describes a race result the scoring service accepted.
type RaceSubmission struct {
	IdempotencyKey string    `json:"idempotency_key"`
	UserID         string    `json:"user_id"`
	RaceID         string    `json:"race_id,omitempty"`
	LeaderboardID  string    `json:"leaderboard_id"`
	Score          int64     `json:"score"`
	StartedAt      int64     `json:"started_at"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
