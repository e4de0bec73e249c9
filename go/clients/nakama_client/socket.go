package nakama_client

import (
	"fmt"
	"net/url"

	"github.com/mcdev12/apexracer/go/internal/session"
)

// SocketURL returns the realtime socket address for sess.
func (c *NakamaClient) SocketURL(sess *session.Session) (string, error) {
	if sess == nil || sess.Token == "" {
		return "", session.ErrNotAuthenticated
	}

	u, err := url.Parse(c.BaseURL())
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = SocketEndpoint

	query := url.Values{}
	query.Set("lang", "en")
	query.Set("status", "false")
	query.Set("token", sess.Token)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
