package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/rs/zerolog/log"
)

// Listener keeps one socket open and hands notifications to a Handler.
type Listener struct {
	socketURL string
	executor  *retry.Executor
	handler   Handler
	config    Config
	dialer    *websocket.Dialer
}

func NewListener(socketURL string, executor *retry.Executor, handler Handler, cfg Config) *Listener {
	return &Listener{
		socketURL: socketURL,
		executor:  executor,
		handler:   handler,
		config:    cfg,
		dialer:    websocket.DefaultDialer,
	}
}

// Run connects and processes notifications until ctx is cancelled or the
// server closes the socket. Connecting goes through the retry executor. The
// handler is never called after Run returns.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := retry.Do(ctx, l.executor, "Realtime Connect", func(ctx context.Context) (*websocket.Conn, error) {
		conn, resp, err := l.dialer.DialContext(ctx, l.socketURL, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("socket handshake failed with status %d: %w", resp.StatusCode, err)
			}
			return nil, err
		}
		return conn, nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to realtime socket: %w", err)
	}

	log.Info().Msg("realtime socket connected")

	readErr := make(chan error, 1)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		readErr <- l.readPump(conn)
	}()

	err = l.writePump(ctx, conn, readErr)
	conn.Close()
	<-readDone
	return err
}

func (l *Listener) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(l.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
		l.dispatch(message)
	}
}

func (l *Listener) dispatch(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Warn().Err(err).Msg("failed to decode socket message")
		return
	}
	if env.Notifications == nil {
		log.Debug().RawJSON("message", message).Msg("ignoring socket message")
		return
	}
	for _, n := range env.Notifications.Notifications {
		log.Debug().Str("notification_id", n.ID).Str("subject", n.Subject).Msg("notification received")
		l.handler(n)
	}
}

// writePump sends keepalive pings and closes the socket when ctx ends.
func (l *Listener) writePump(ctx context.Context, conn *websocket.Conn, readErr <-chan error) error {
	ticker := time.NewTicker(l.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(l.config.WriteTimeout))
			return nil
		case err := <-readErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("realtime socket closed unexpectedly")
				return fmt.Errorf("realtime socket: %w", err)
			}
			log.Info().Msg("realtime socket closed")
			return nil
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("failed to send ping: %w", err)
			}
		}
	}
}
