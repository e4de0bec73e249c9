package nakama_client

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mcdev12/apexracer/go/clients"
	"github.com/mcdev12/apexracer/go/internal/session"
)

// NakamaClient talks to a Nakama server over its REST gateway.
type NakamaClient struct {
	*clients.BaseClient
	serverKey string
}

func NewNakamaClient(scheme, host string, port int, serverKey string) *NakamaClient {
	return &NakamaClient{
		BaseClient: clients.NewBaseClient(fmt.Sprintf("%s://%s:%d", scheme, host, port)),
		serverKey:  serverKey,
	}
}

// NewNakamaClientWithURL is used when the server address is already a URL.
func NewNakamaClientWithURL(baseURL, serverKey string) *NakamaClient {
	return &NakamaClient{
		BaseClient: clients.NewBaseClient(baseURL),
		serverKey:  serverKey,
	}
}

// serverKeyHeaders authenticate with the server key, used before a session exists.
func (c *NakamaClient) serverKeyHeaders() map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	return map[string]string{AuthorizationHeader: "Basic " + creds}
}

func sessionHeaders(sess *session.Session) (map[string]string, error) {
	if sess == nil || sess.Token == "" {
		return nil, session.ErrNotAuthenticated
	}
	return map[string]string{AuthorizationHeader: "Bearer " + sess.Token}, nil
}

// IsRetryable reports whether err is worth another attempt. Client errors
// other than request timeouts and rate limiting are not. Pass it to
// retry.WithRetryIf to stop retrying those early.
func IsRetryable(err error) bool {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
