package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RankTier groups podium ranks for display.
type RankTier string

const (
	RankTierGold   RankTier = "GOLD"
	RankTierSilver RankTier = "SILVER"
	RankTierBronze RankTier = "BRONZE"
	RankTierNone   RankTier = "NONE"
)

// RewardRecord is a reward granted to a player at the end of a leaderboard cycle.
type RewardRecord struct {
	UserID    string  `json:"user_id"`
	Username  string  `json:"username"`
	Cycle     int     `json:"cycle"`
	Reward    string  `json:"reward"`
	Rank      int     `json:"rank"`
	RaceTime  float64 `json:"race_time"` // seconds
	Timestamp int64   `json:"timestamp"`
	AwardedAt int64   `json:"awarded_at"` // unix seconds
}

// RewardHistory is the payload of the reward history procedure.
type RewardHistory struct {
	UserID  string         `json:"user_id"`
	Rewards []RewardRecord `json:"rewards"`
	Total   int            `json:"total"`
}

// DisplayName turns a reward label such as "gold_trophy" into "Gold Trophy".
// A Caser holds state, so each call gets its own.
func (r RewardRecord) DisplayName() string {
	if r.Reward == "" {
		return "Unknown Reward"
	}
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(r.Reward, "_", " ")))
}

// RankTier returns the podium tier for the record's rank.
func (r RewardRecord) RankTier() RankTier {
	switch r.Rank {
	case 1:
		return RankTierGold
	case 2:
		return RankTierSilver
	case 3:
		return RankTierBronze
	default:
		return RankTierNone
	}
}

func (r RewardRecord) AwardedTime() time.Time {
	return time.Unix(r.AwardedAt, 0).UTC()
}
