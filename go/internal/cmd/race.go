package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/apexracer/go/internal/race"
	"github.com/spf13/cobra"
)

// NewRaceCommand creates the race command.
func NewRaceCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		raceID    string
		raceTime  int64
		startedAt int64
	)

	cmd := &cobra.Command{
		Use:   "race",
		Short: "Run a race and submit the finishing time",
		Long: `Start a race attempt and submit the result to the leaderboard.

Without --time the race runs until Enter is pressed and the elapsed time is
submitted. Ctrl-C cancels the attempt without submitting anything.

--started-at resumes an earlier attempt so a failed submission is sent again
with the same idempotency key; it requires --time.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if startedAt != 0 && raceTime <= 0 {
				return fmt.Errorf("--started-at requires --time")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace(cmd, rootOpts, raceID, raceTime, startedAt)
		},
	}

	cmd.Flags().StringVar(&raceID, "race-id", "", "race identifier (default from config)")
	cmd.Flags().Int64Var(&raceTime, "time", 0, "finishing time in milliseconds, skips the interactive timer")
	cmd.Flags().Int64Var(&startedAt, "started-at", 0, "start time in unix nanoseconds of an attempt to resubmit")
	return cmd
}

func runRace(cmd *cobra.Command, rootOpts *RootOptions, raceID string, raceTime, startedAt int64) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	s := setupServices(ctx, cfg)
	defer s.Close()

	if _, err := s.Sessions.Authenticate(ctx); err != nil {
		return err
	}

	if raceID == "" {
		raceID = cfg.Race.DefaultRaceID
	}

	var attempt race.Attempt
	if startedAt != 0 {
		attempt, err = s.Race.ResumeAttempt(raceID, startedAt)
		if err != nil {
			return err
		}
		boldStyle.Fprintf(w, "Race %s resumed\n", attempt.RaceID)
	} else {
		attempt, err = s.Race.StartAttempt(raceID)
		if err != nil {
			return err
		}
		boldStyle.Fprintf(w, "Race %s started\n", attempt.RaceID)
	}
	infoStyle.Fprintf(w, "  idempotency key: %s\n", attempt.IdempotencyKey)

	score := raceTime
	if score <= 0 {
		fmt.Fprintln(w, "Press Enter to finish, Ctrl-C to abandon.")
		elapsed, err := waitForFinish(ctx, cmd.InOrStdin(), s.Executor.Clock())
		if err != nil {
			if cancelErr := s.Race.CancelAttempt(); cancelErr != nil {
				return cancelErr
			}
			errorStyle.Fprintln(w, "✗ Race cancelled")
			return nil
		}
		score = elapsed.Milliseconds()
	}

	record, err := s.Race.SubmitResult(ctx, score)
	if err != nil {
		errorStyle.Fprintf(w, "✗ Submission failed (key %s)\n", attempt.IdempotencyKey)
		fmt.Fprintf(w, "  resend with: racer race --race-id %s --started-at %d --time %d\n",
			attempt.RaceID, attempt.StartedAt, score)
		return err
	}

	printRecord(w, record)
	return nil
}

// waitForFinish blocks until a line is read from in and returns the time
// elapsed. It fails if ctx is cancelled or in is closed first.
func waitForFinish(ctx context.Context, in io.Reader, clock clockwork.Clock) (time.Duration, error) {
	start := clock.Now()

	lines := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		lines <- err
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case err := <-lines:
		if err != nil {
			return 0, fmt.Errorf("input closed: %w", err)
		}
		return clock.Since(start), nil
	}
}
