package nakama_client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mcdev12/apexracer/go/clients"
	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/mcdev12/apexracer/go/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToken(t *testing.T, uid string, exp time.Time) string {
	t.Helper()
	claims, err := json.Marshal(map[string]any{"uid": uid, "usn": "racer_1234", "exp": exp.Unix()})
	require.NoError(t, err)
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString(claims) + ".sig"
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *NakamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewNakamaClientWithURL(server.URL, "defaultkey")
}

func TestAuthenticateDevice(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	token := testToken(t, "u-1", exp)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AuthenticateDeviceEndpoint, r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("create"))
		assert.Equal(t, "racer_1234", r.URL.Query().Get("username"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "defaultkey", user)
		assert.Empty(t, pass)

		var body deviceAccount
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "device-abcdef-123", body.ID)

		_ = json.NewEncoder(w).Encode(sessionResponse{Created: true, Token: token, RefreshToken: "refresh"})
	})

	sess, err := client.AuthenticateDevice(context.Background(), "device-abcdef-123", "racer_1234", true)
	require.NoError(t, err)

	assert.Equal(t, "u-1", sess.UserID)
	assert.Equal(t, "racer_1234", sess.Username)
	assert.True(t, sess.Created)
	assert.Equal(t, exp, sess.ExpiresAt)
	assert.Equal(t, token, sess.Token)
}

func TestAuthenticateDeviceUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Server key invalid","code":16}`)
	})

	_, err := client.AuthenticateDevice(context.Background(), "device-abcdef-123", "", true)
	require.Error(t, err)

	assert.False(t, retry.IsPermanent(err))
	assert.False(t, IsRetryable(err))
	var apiErr *clients.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestAuthenticateEmail(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	token := testToken(t, "u-2", exp)

	tests := []struct {
		name     string
		username string
		create   bool
	}{
		{name: "register", username: "test_racer12", create: true},
		{name: "login", create: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, AuthenticateEmailEndpoint, r.URL.Path)
				assert.Equal(t, strconv.FormatBool(tt.create), r.URL.Query().Get("create"))
				assert.Equal(t, tt.username, r.URL.Query().Get("username"))

				user, _, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "defaultkey", user)

				var body emailAccount
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "testuser@example.com", body.Email)
				assert.Equal(t, "Password123!", body.Password)

				_ = json.NewEncoder(w).Encode(sessionResponse{Created: tt.create, Token: token})
			})

			sess, err := client.AuthenticateEmail(context.Background(), "testuser@example.com", "Password123!", tt.username, tt.create)
			require.NoError(t, err)

			assert.Equal(t, "u-2", sess.UserID)
			assert.Equal(t, tt.create, sess.Created)
		})
	}
}

func TestAuthenticateEmailUnknownAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"User account not found.","code":5}`)
	})

	_, err := client.AuthenticateEmail(context.Background(), "nobody@example.com", "Password123!", "", false)

	var apiErr *clients.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientErrorsAreRetriedUntilExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid score","code":3}`)
	})
	sess := &session.Session{Token: "tok", UserID: "u-1"}
	policy := retry.Policy{MaxRetries: 3, PerAttemptTimeout: 5 * time.Second}

	write := func(ctx context.Context) (*models.LeaderboardRecord, error) {
		return client.WriteLeaderboardRecord(ctx, sess, "race_times", 1, 0, "")
	}

	_, err := retry.Do(context.Background(), retry.NewExecutor(policy), "Submit Leaderboard Score", write)
	assert.ErrorIs(t, err, retry.ErrRetryBudgetExhausted)
	assert.Equal(t, int32(4), calls.Load())

	calls.Store(0)
	failFast := retry.NewExecutor(policy, retry.WithRetryIf(IsRetryable))
	_, err = retry.Do(context.Background(), failFast, "Submit Leaderboard Score", write)
	require.Error(t, err)
	assert.NotErrorIs(t, err, retry.ErrRetryBudgetExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWriteLeaderboardRecord(t *testing.T) {
	sess := &session.Session{Token: "tok", UserID: "u-1"}
	metadata := `{"idempotentKey":"u-1_trackA_1700000000"}`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/leaderboard/race_times", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get(AuthorizationHeader))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"score":"42123","subscore":"0","metadata":"{\"idempotentKey\":\"u-1_trackA_1700000000\"}"}`, string(raw))

		_, _ = io.WriteString(w, `{"leaderboard_id":"race_times","owner_id":"u-1","score":"42123","subscore":"0","num_score":1,"metadata":"{\"idempotentKey\":\"u-1_trackA_1700000000\"}","create_time":"2024-05-01T10:00:00Z","update_time":"2024-05-01T10:00:00Z"}`)
	})

	record, err := client.WriteLeaderboardRecord(context.Background(), sess, "race_times", 42123, 0, metadata)
	require.NoError(t, err)

	assert.Equal(t, int64(42123), record.Score)
	assert.Equal(t, "u-1", record.OwnerID)
	assert.Equal(t, metadata, record.Metadata)
}

func TestWriteLeaderboardRecordServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.WriteLeaderboardRecord(context.Background(), &session.Session{Token: "tok"}, "race_times", 1, 0, "")
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
	assert.True(t, IsRetryable(err))
}

func TestCallsWithoutSessionFailFast(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.WriteLeaderboardRecord(context.Background(), nil, "race_times", 1, 0, "")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	_, err = client.ListLeaderboardRecords(context.Background(), &session.Session{}, "race_times", 10)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	_, err = client.RPC(context.Background(), nil, "race_reward_history", "{}")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	assert.False(t, called)
}

func TestListLeaderboardRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/leaderboard/race_times", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		_, _ = io.WriteString(w, `{"records":[{"leaderboard_id":"race_times","owner_id":"u-2","username":"fast","score":"39000","subscore":"0","rank":"1"},{"leaderboard_id":"race_times","owner_id":"u-1","username":"racer","score":"42123","subscore":"0","rank":"2"}],"next_cursor":"abc"}`)
	})

	list, err := client.ListLeaderboardRecords(context.Background(), &session.Session{Token: "tok"}, "race_times", 10)
	require.NoError(t, err)

	require.Len(t, list.Records, 2)
	assert.Equal(t, "fast", list.Records[0].Username)
	assert.Equal(t, int64(1), list.Records[0].Rank)
	assert.Equal(t, int64(42123), list.Records[1].Score)
	assert.Equal(t, "abc", list.NextCursor)
}

func TestRPC(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/rpc/race_reward_history", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get(AuthorizationHeader))

		var payload string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "{}", payload)

		_, _ = io.WriteString(w, `{"id":"race_reward_history","payload":"{\"user_id\":\"u-1\",\"rewards\":[],\"total\":0}"}`)
	})

	payload, err := client.RPC(context.Background(), &session.Session{Token: "tok"}, "race_reward_history", "{}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"u-1","rewards":[],"total":0}`, payload)
}

func TestSocketURL(t *testing.T) {
	client := NewNakamaClient("https", "game.example.com", 7350, "defaultkey")

	socketURL, err := client.SocketURL(&session.Session{Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "wss://game.example.com:7350/ws?lang=en&status=false&token=tok", socketURL)

	_, err = client.SocketURL(nil)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}
