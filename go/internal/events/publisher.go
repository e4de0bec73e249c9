package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// PublisherConfig describes the NATS server and the stream submissions land in.
type PublisherConfig struct {
	URL         string
	Stream      string
	SubjectRoot string

	// Retention bounds how long events are kept on the stream.
	Retention time.Duration
	// DedupWindow is how long the server remembers message ids. A submission
	// republished inside it is stored once.
	DedupWindow time.Duration
	Replicas    int

	Reconnect ReconnectPolicy
}

type ReconnectPolicy struct {
	Max  int // -1 retries forever
	Wait time.Duration
}

func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		URL:         nats.DefaultURL,
		Stream:      "RACE_EVENTS",
		SubjectRoot: "race.events",
		Retention:   7 * 24 * time.Hour,
		DedupWindow: 2 * time.Hour,
		Replicas:    1,
		Reconnect: ReconnectPolicy{
			Max:  -1,
			Wait: 2 * time.Second,
		},
	}
}

func (c PublisherConfig) stream() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        c.Stream,
		Description: "Accepted race results",
		Subjects:    []string{c.SubjectRoot + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      c.Retention,
		Duplicates:  c.DedupWindow,
		Replicas:    c.Replicas,
	}
}

func (c PublisherConfig) connectOptions() []nats.Option {
	return []nats.Option{
		nats.Name("racer"),
		nats.MaxReconnects(c.Reconnect.Max),
		nats.ReconnectWait(c.Reconnect.Wait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("lost connection to NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("back on NATS")
		}),
	}
}

// msgPublisher is the slice of jetstream.JetStream the publisher sends through.
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher writes race events to a JetStream stream.
type Publisher struct {
	conn   *nats.Conn
	js     msgPublisher
	stream string
	root   string
}

// Dial connects to NATS and creates the stream, or brings an existing one in
// line with cfg.
func Dial(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL, cfg.connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, cfg.stream())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("declare stream %s: %w", cfg.Stream, err)
	}
	log.Debug().
		Str("stream", stream.CachedInfo().Config.Name).
		Strs("subjects", stream.CachedInfo().Config.Subjects).
		Msg("stream ready")

	return &Publisher{conn: nc, js: js, stream: cfg.Stream, root: cfg.SubjectRoot}, nil
}

// PublishRaceSubmitted sends s. The idempotency key is the message id, so a
// resubmitted race is acknowledged as a duplicate instead of stored twice.
func (p *Publisher) PublishRaceSubmitted(ctx context.Context, s models.RaceSubmission) error {
	env, err := NewRaceSubmittedEnvelope(s)
	if err != nil {
		return err
	}

	msg, err := p.message(env)
	if err != nil {
		return err
	}

	ack, err := p.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}

	evt := log.Info()
	if ack.Duplicate {
		evt = log.Debug()
	}
	evt.Str("subject", msg.Subject).
		Str("event_id", env.EventID).
		Uint64("seq", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("race event published")
	return nil
}

func (p *Publisher) message(env Envelope) (*nats.Msg, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", env.EventType, err)
	}

	msg := nats.NewMsg(Subject(p.root, env.EventType))
	msg.Data = body
	msg.Header.Set(nats.MsgIdHdr, env.EventID)
	msg.Header.Set(nats.ExpectedStreamHdr, p.stream)
	msg.Header.Set("Event-Type", env.EventType)
	msg.Header.Set("User-ID", env.UserID)
	return msg, nil
}

// Close flushes pending publishes before closing the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
