package race

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/rs/zerolog/log"
)

const rewardHistoryArgs = "{}"

// FetchRewardHistory calls the reward history procedure for the current user.
// Any failure is logged and reported as (nil, false): no data right now.
func (a *App) FetchRewardHistory(ctx context.Context) (*models.RewardHistory, bool) {
	if _, err := a.sessions.Session(); err != nil {
		log.Error().Err(err).Msg("cannot fetch rewards: user is not authenticated")
		return nil, false
	}

	payload, err := retry.Do(ctx, a.executor, "Get Reward History", func(ctx context.Context) (string, error) {
		sess, err := a.currentSession()
		if err != nil {
			return "", err
		}
		return a.scores.RPC(ctx, sess, a.config.RewardHistoryRPC, rewardHistoryArgs)
	})
	if err != nil {
		log.Error().Err(err).Str("rpc", a.config.RewardHistoryRPC).Msg("failed to fetch reward history")
		return nil, false
	}

	var history models.RewardHistory
	if err := json.Unmarshal([]byte(payload), &history); err != nil {
		log.Error().Err(err).Str("rpc", a.config.RewardHistoryRPC).Msg("failed to decode reward history")
		return nil, false
	}

	log.Debug().Int("rewards", len(history.Rewards)).Msg("fetched reward history")
	return &history, true
}

// ListLeaderboard returns the top records of the configured leaderboard. A
// non-positive limit falls back to the configured one.
func (a *App) ListLeaderboard(ctx context.Context, limit int) (*models.LeaderboardRecordList, bool) {
	if limit <= 0 {
		limit = a.config.LeaderboardLimit
	}

	if _, err := a.sessions.Session(); err != nil {
		log.Error().Err(err).Msg("cannot list leaderboard: user is not authenticated")
		return nil, false
	}

	records, err := retry.Do(ctx, a.executor, "Get Leaderboard Records", func(ctx context.Context) (*models.LeaderboardRecordList, error) {
		sess, err := a.currentSession()
		if err != nil {
			return nil, err
		}
		return a.scores.ListLeaderboardRecords(ctx, sess, a.config.LeaderboardID, limit)
	})
	if err != nil {
		log.Error().Err(err).Str("leaderboard_id", a.config.LeaderboardID).Msg("failed to list leaderboard records")
		return nil, false
	}

	return records, true
}
