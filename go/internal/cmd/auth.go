package main

import (
	"github.com/spf13/cobra"
)

// NewAuthCommand creates the auth command.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate this device and print the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			s := setupServices(cmd.Context(), cfg)
			defer s.Close()

			sess, err := s.Sessions.Authenticate(cmd.Context())
			if err != nil {
				return err
			}

			printSession(cmd.OutOrStdout(), "✓ Authenticated", sess)
			return nil
		},
	}
}
