package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// NewRewardsCommand creates the rewards command.
func NewRewardsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "Show rewards earned in past leaderboard cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			s := setupServices(cmd.Context(), cfg)
			defer s.Close()

			if _, err := s.Sessions.Authenticate(cmd.Context()); err != nil {
				return err
			}

			history, ok := s.Race.FetchRewardHistory(cmd.Context())
			if !ok {
				return errors.New("reward history is not available right now")
			}
			printRewards(cmd.OutOrStdout(), history)
			return nil
		},
	}
}
