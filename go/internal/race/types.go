package race

// State is the lifecycle state of the workflow.
type State int

const (
	StateIdle State = iota
	StateInProgress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInProgress:
		return "IN_PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// Attempt is one race submission cycle.
type Attempt struct {
	RaceID         string
	StartedAt      int64 // unix nanoseconds from the workflow clock
	IdempotencyKey string
}

// Config names the remote resources the workflow talks to.
type Config struct {
	LeaderboardID    string
	RewardHistoryRPC string
	LeaderboardLimit int
}

func DefaultConfig() Config {
	return Config{
		LeaderboardID:    "race_times",
		RewardHistoryRPC: "race_reward_history",
		LeaderboardLimit: 10,
	}
}
