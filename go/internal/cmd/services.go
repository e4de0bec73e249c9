package main

import (
	"context"

	"github.com/mcdev12/apexracer/go/clients/nakama_client"
	"github.com/mcdev12/apexracer/go/internal/config"
	"github.com/mcdev12/apexracer/go/internal/events"
	"github.com/mcdev12/apexracer/go/internal/race"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/mcdev12/apexracer/go/internal/session"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Config    *config.Config
	Executor  *retry.Executor
	Client    *nakama_client.NakamaClient
	Sessions  *session.Provider
	Race      *race.App
	publisher *events.Publisher
}

func setupServices(ctx context.Context, cfg *config.Config, opts ...retry.Option) *Services {
	// Client → Executor → Session provider → Race workflow
	client := nakama_client.NewNakamaClientWithURL(cfg.ServerURL(), cfg.Server.ServerKey)
	if cfg.Retry.FailFastClientErrors {
		opts = append(opts, retry.WithRetryIf(nakama_client.IsRetryable))
	}
	executor := retry.NewExecutor(cfg.Policy(), opts...)
	sessions := session.NewProvider(client, executor, credentials(cfg))

	s := &Services{
		Config:   cfg,
		Executor: executor,
		Client:   client,
		Sessions: sessions,
	}

	var raceOpts []race.Option
	if pubCfg, ok := cfg.Events(); ok {
		publisher, err := events.Dial(ctx, pubCfg)
		if err != nil {
			// Scores still go to the server without the event stream.
			log.Warn().Err(err).Str("url", pubCfg.URL).Msg("submission events disabled")
		} else {
			s.publisher = publisher
			raceOpts = append(raceOpts, race.WithPublisher(publisher))
		}
	}

	s.Race = race.NewApp(sessions, client, executor, cfg.RaceConfig(), raceOpts...)
	return s
}

func credentials(cfg *config.Config) session.Credentials {
	return session.Credentials{
		DeviceID: cfg.Player.DeviceID,
		Email:    cfg.Player.Email,
		Password: cfg.Player.Password,
		Username: cfg.Player.Username,
	}
}

func (s *Services) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}
