package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notificationFrame = `{"notifications":{"notifications":[
	{"id":"n-1","subject":"Race reward granted","content":"{\"reward\":\"gold_trophy\"}","code":100,"create_time":"2024-05-01T10:00:00Z","persistent":true},
	{"id":"n-2","subject":"Friend request","content":"{}","code":-2,"create_time":"2024-05-01T10:00:01Z"}
]}}`

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testExecutor(maxRetries int) *retry.Executor {
	return retry.NewExecutor(retry.Policy{
		MaxRetries:        maxRetries,
		PerAttemptTimeout: 5 * time.Second,
	})
}

func TestListenerDeliversNotifications(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`{"cid":"1","status_presence_event":{}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(notificationFrame))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		// wait for the client to close
		conn.ReadMessage()
	}))
	defer server.Close()

	var mu sync.Mutex
	var got []Notification
	l := NewListener(wsURL(server), testExecutor(0), func(n Notification) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, n)
	}, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, l.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "n-1", got[0].ID)
	assert.True(t, got[0].IsReward())
	assert.Equal(t, 100, got[0].Code)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got[0].CreateTime)
	assert.False(t, got[1].IsReward())
}

func TestListenerStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	l := NewListener(wsURL(server), testExecutor(0), func(Notification) {}, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListenerRetriesRejectedHandshake(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	l := NewListener(wsURL(server), testExecutor(3), func(Notification) {}, DefaultConfig())

	err := l.Run(context.Background())

	assert.ErrorIs(t, err, retry.ErrRetryBudgetExhausted)
	assert.Contains(t, err.Error(), "status 401")
	mu.Lock()
	assert.Equal(t, 4, calls)
	mu.Unlock()
}
