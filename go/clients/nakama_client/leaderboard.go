package nakama_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/mcdev12/apexracer/go/internal/session"
)

type leaderboardRecordWrite struct {
	Score    int64  `json:"score,string"`
	Subscore int64  `json:"subscore,string"`
	Metadata string `json:"metadata,omitempty"`
}

// WriteLeaderboardRecord submits a score. metadata must be a JSON object encoded as a string.
func (c *NakamaClient) WriteLeaderboardRecord(ctx context.Context, sess *session.Session, leaderboardID string, score, subscore int64, metadata string) (*models.LeaderboardRecord, error) {
	headers, err := sessionHeaders(sess)
	if err != nil {
		return nil, err
	}

	endpoint := LeaderboardEndpoint + url.PathEscape(leaderboardID)
	record := leaderboardRecordWrite{Score: score, Subscore: subscore, Metadata: metadata}

	body, err := c.PostJSON(ctx, endpoint, record, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to write leaderboard record: %w", err)
	}

	var response models.LeaderboardRecord
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &response, nil
}

// ListLeaderboardRecords returns the top limit records of a leaderboard.
func (c *NakamaClient) ListLeaderboardRecords(ctx context.Context, sess *session.Session, leaderboardID string, limit int) (*models.LeaderboardRecordList, error) {
	headers, err := sessionHeaders(sess)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	endpoint := LeaderboardEndpoint + url.PathEscape(leaderboardID)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard records: %w", err)
	}

	var response models.LeaderboardRecordList
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &response, nil
}
