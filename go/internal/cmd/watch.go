package main

import (
	"io"
	"sync"

	"github.com/mcdev12/apexracer/go/internal/realtime"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print notifications as they arrive, refreshing rewards when one is granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := &lockedWriter{w: cmd.OutOrStdout()}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			s := setupServices(ctx, cfg)
			defer s.Close()

			sess, err := s.Sessions.Authenticate(ctx)
			if err != nil {
				return err
			}
			socketURL, err := s.Client.SocketURL(sess)
			if err != nil {
				return err
			}

			rewardsDue := make(chan struct{}, 1)
			listener := realtime.NewListener(socketURL, s.Executor, func(n realtime.Notification) {
				printNotification(w, n)
				if n.IsReward() {
					select {
					case rewardsDue <- struct{}{}:
					default:
					}
				}
			}, realtime.DefaultConfig())

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range rewardsDue {
					if history, ok := s.Race.FetchRewardHistory(ctx); ok {
						printRewards(w, history)
					}
				}
			}()

			infoStyle.Fprintln(w, "Watching for notifications, Ctrl-C to stop.")
			err = listener.Run(ctx)

			// Run never calls the handler after returning.
			close(rewardsDue)
			wg.Wait()

			if err != nil {
				return err
			}
			log.Info().Msg("stopped watching")
			return nil
		},
	}
}

// lockedWriter serializes output from the socket reader and the rewards refresher.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
