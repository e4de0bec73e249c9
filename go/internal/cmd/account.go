package main

import (
	"errors"

	"github.com/mcdev12/apexracer/go/internal/config"
	"github.com/spf13/cobra"
)

// AccountOptions override the email credentials from the config.
type AccountOptions struct {
	Email    string
	Password string
	Username string
}

func (o *AccountOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Email, "email", "", "account email (default $RACER_EMAIL)")
	cmd.Flags().StringVar(&o.Password, "password", "", "account password (default $RACER_PASSWORD)")
	cmd.Flags().StringVar(&o.Username, "username", "", "display name for a new account (default $RACER_USERNAME)")
}

func (o *AccountOptions) apply(cfg *config.Config) error {
	if o.Email != "" {
		cfg.Player.Email = o.Email
	}
	if o.Password != "" {
		cfg.Player.Password = o.Password
	}
	if o.Username != "" {
		cfg.Player.Username = o.Username
	}
	if cfg.Player.Email == "" || cfg.Player.Password == "" {
		return errors.New("email and password are required, set --email and --password or RACER_EMAIL and RACER_PASSWORD")
	}
	return nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an email account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			s := setupServices(cmd.Context(), cfg)
			defer s.Close()

			sess, err := s.Sessions.Register(cmd.Context())
			if err != nil {
				return err
			}

			title := "✓ Signed in to existing account"
			if sess.Created {
				title = "✓ Account created"
			}
			printSession(cmd.OutOrStdout(), title, sess)
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an existing email account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			s := setupServices(cmd.Context(), cfg)
			defer s.Close()

			sess, err := s.Sessions.Authenticate(cmd.Context())
			if err != nil {
				return err
			}

			printSession(cmd.OutOrStdout(), "✓ Logged in", sess)
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}
