package models

import "time"

// LeaderboardRecord is one entry on a leaderboard as returned by the scoring service.
// 64-bit integers travel as JSON strings.
type LeaderboardRecord struct {
	LeaderboardID string    `json:"leaderboard_id"`
	OwnerID       string    `json:"owner_id"`
	Username      string    `json:"username,omitempty"`
	Score         int64     `json:"score,string"`
	Subscore      int64     `json:"subscore,string"`
	NumScore      int       `json:"num_score,omitempty"`
	MaxNumScore   int       `json:"max_num_score,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
	Rank          int64     `json:"rank,string,omitempty"`
	CreateTime    time.Time `json:"create_time"`
	UpdateTime    time.Time `json:"update_time"`
}

// LeaderboardRecordList is a page of leaderboard records.
type LeaderboardRecordList struct {
	Records      []LeaderboardRecord `json:"records"`
	OwnerRecords []LeaderboardRecord `json:"owner_records,omitempty"`
	NextCursor   string              `json:"next_cursor,omitempty"`
	PrevCursor   string              `json:"prev_cursor,omitempty"`
	RankCount    int64               `json:"rank_count,string,omitempty"`
}
