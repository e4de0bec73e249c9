package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// NewLeaderboardCommand creates the leaderboard command.
func NewLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top race times",
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

			list, ok := s.Race.ListLeaderboard(cmd.Context(), limit)
			if !ok {
				return errors.New("leaderboard is not available right now")
			}
			printLeaderboard(cmd.OutOrStdout(), list, s.Sessions.UserID())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of records (default from config)")
	return cmd
}
