package race

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/mcdev12/apexracer/go/internal/session"
	"github.com/rs/zerolog/log"
)

// SessionSource supplies the current session, failing with
// session.ErrNotAuthenticated when there is no valid one.
type SessionSource interface {
	Session() (*session.Session, error)
}

// ScoringClient defines what the workflow needs from the remote scoring service
type ScoringClient interface {
	WriteLeaderboardRecord(ctx context.Context, sess *session.Session, leaderboardID string, score, subscore int64, metadata string) (*models.LeaderboardRecord, error)
	ListLeaderboardRecords(ctx context.Context, sess *session.Session, leaderboardID string, limit int) (*models.LeaderboardRecordList, error)
	RPC(ctx context.Context, sess *session.Session, name, jsonArgs string) (string, error)
}

// SubmissionPublisher announces accepted race results to other consumers
type SubmissionPublisher interface {
	PublishRaceSubmitted(ctx context.Context, submission models.RaceSubmission) error
}

type Option func(*App)

func WithPublisher(p SubmissionPublisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

// App runs the race submission workflow. At most one attempt is in progress
// at a time; its idempotency key is fixed when the attempt starts and is sent
// with every retry of the submission.
type App struct {
	sessions  SessionSource
	scores    ScoringClient
	executor  *retry.Executor
	publisher SubmissionPublisher
	clock     clockwork.Clock
	config    Config

	mu         sync.Mutex
	state      State
	attempt    *Attempt
	submitting bool
}

// NewApp creates a new race workflow. Attempt timestamps come from the executor's clock.
func NewApp(sessions SessionSource, scores ScoringClient, executor *retry.Executor, cfg Config, opts ...Option) *App {
	a := &App{
		sessions: sessions,
		scores:   scores,
		executor: executor,
		clock:    executor.Clock(),
		config:   cfg,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StartAttempt begins a race. It fails with ErrInvalidStateTransition if an
// attempt is already in progress and with session.ErrNotAuthenticated if
// there is no valid session to take the user identity from.
func (a *App) StartAttempt(raceID string) (Attempt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		log.Warn().Str("race_id", a.attempt.RaceID).Msg("race already in progress")
		return Attempt{}, &TransitionError{Op: "start attempt", State: a.state}
	}

	sess, err := a.sessions.Session()
	if err != nil {
		return Attempt{}, fmt.Errorf("start attempt: %w", err)
	}

	startedAt := a.clock.Now().UnixNano()
	a.attempt = &Attempt{
		RaceID:         raceID,
		StartedAt:      startedAt,
		IdempotencyKey: DeriveIdempotencyKey(sess.UserID, raceID, startedAt),
	}
	a.state = StateInProgress

	log.Info().
		Str("race_id", raceID).
		Str("idempotency_key", a.attempt.IdempotencyKey).
		Msg("race started")

	return *a.attempt, nil
}

// SubmitResult writes finalValue for the attempt in progress.
func (a *App) SubmitResult(ctx context.Context, finalValue int64) (*models.LeaderboardRecord, error) {
	return a.SubmitResultWithData(ctx, finalValue, nil)
}

// SubmitResultWithData writes finalValue with extra JSON data stored next to
// the idempotency key in the record metadata. Whatever the outcome, the
// workflow is Idle afterwards; a caller that wants to try again with the same
// key must keep the race id and start time and call ResumeAttempt.
func (a *App) SubmitResultWithData(ctx context.Context, finalValue int64, data json.RawMessage) (*models.LeaderboardRecord, error) {
	a.mu.Lock()
	if a.state != StateInProgress {
		st := a.state
		a.mu.Unlock()
		log.Error().Msg("no race in progress")
		return nil, &TransitionError{Op: "submit result", State: st}
	}
	if a.submitting {
		st := a.state
		a.mu.Unlock()
		return nil, &TransitionError{Op: "submit result", State: st, Reason: "submission already in flight"}
	}
	attempt := *a.attempt
	a.submitting = true
	a.mu.Unlock()

	defer a.reset()

	if _, err := a.sessions.Session(); err != nil {
		log.Error().Str("idempotency_key", attempt.IdempotencyKey).Msg("cannot submit score: user is not authenticated")
		return nil, fmt.Errorf("submit race result: %w", err)
	}

	metadata, err := BuildMetadata(attempt.IdempotencyKey, data)
	if err != nil {
		return nil, fmt.Errorf("submit race result: %w", err)
	}

	record, err := retry.Do(ctx, a.executor, "Submit Leaderboard Score", func(ctx context.Context) (*models.LeaderboardRecord, error) {
		sess, err := a.currentSession()
		if err != nil {
			return nil, err
		}
		return a.scores.WriteLeaderboardRecord(ctx, sess, a.config.LeaderboardID, finalValue, 0, metadata)
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("leaderboard_id", a.config.LeaderboardID).
			Str("idempotency_key", attempt.IdempotencyKey).
			Msg("failed to submit race result")
		return nil, fmt.Errorf("submit race result: %w", err)
	}

	log.Info().
		Int64("score", finalValue).
		Str("leaderboard_id", a.config.LeaderboardID).
		Str("idempotency_key", attempt.IdempotencyKey).
		Msg("race result submitted")

	a.publishSubmitted(ctx, record.OwnerID, attempt, finalValue)

	return record, nil
}

// ResumeAttempt restores an attempt from the race id and start time of an
// earlier StartAttempt, so a failed submission can be sent again under the
// same idempotency key.
func (a *App) ResumeAttempt(raceID string, startedAt int64) (Attempt, error) {
	if raceID == "" || startedAt == 0 {
		return Attempt{}, fmt.Errorf("resume attempt: race id and start time are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		return Attempt{}, &TransitionError{Op: "resume attempt", State: a.state}
	}

	sess, err := a.sessions.Session()
	if err != nil {
		return Attempt{}, fmt.Errorf("resume attempt: %w", err)
	}

	a.attempt = &Attempt{
		RaceID:         raceID,
		StartedAt:      startedAt,
		IdempotencyKey: DeriveIdempotencyKey(sess.UserID, raceID, startedAt),
	}
	a.state = StateInProgress

	log.Info().
		Str("race_id", raceID).
		Str("idempotency_key", a.attempt.IdempotencyKey).
		Msg("race resumed")

	return *a.attempt, nil
}

// CancelAttempt abandons the attempt in progress without touching the network.
func (a *App) CancelAttempt() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateInProgress {
		return &TransitionError{Op: "cancel attempt", State: a.state}
	}
	if a.submitting {
		return &TransitionError{Op: "cancel attempt", State: a.state, Reason: "submission already in flight"}
	}

	log.Info().Str("race_id", a.attempt.RaceID).Msg("race cancelled")
	a.state = StateIdle
	a.attempt = nil
	return nil
}

// CurrentIdempotencyKey returns the key of the attempt in progress, or "" when Idle.
func (a *App) CurrentIdempotencyKey() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.attempt == nil {
		return ""
	}
	return a.attempt.IdempotencyKey
}

// CurrentAttempt returns a copy of the attempt in progress.
func (a *App) CurrentAttempt() (Attempt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.attempt == nil {
		return Attempt{}, false
	}
	return *a.attempt, true
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// currentSession is called at the start of every attempt. A missing or
// expired session ends the retry loop instead of spending the budget.
func (a *App) currentSession() (*session.Session, error) {
	sess, err := a.sessions.Session()
	if err != nil {
		return nil, retry.Permanent(err)
	}
	return sess, nil
}

func (a *App) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateIdle
	a.attempt = nil
	a.submitting = false
}

// publishSubmitted is best effort; the score is already stored.
func (a *App) publishSubmitted(ctx context.Context, userID string, attempt Attempt, score int64) {
	if a.publisher == nil {
		return
	}

	submission := models.RaceSubmission{
		IdempotencyKey: attempt.IdempotencyKey,
		UserID:         userID,
		RaceID:         attempt.RaceID,
		LeaderboardID:  a.config.LeaderboardID,
		Score:          score,
		StartedAt:      attempt.StartedAt,
		SubmittedAt:    a.clock.Now().UTC(),
	}
	if err := a.publisher.PublishRaceSubmitted(ctx, submission); err != nil {
		log.Warn().Err(err).Str("idempotency_key", attempt.IdempotencyKey).Msg("failed to publish race submitted event")
	}
}
