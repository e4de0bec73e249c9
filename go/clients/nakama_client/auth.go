package nakama_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mcdev12/apexracer/go/internal/session"
)

type deviceAccount struct {
	ID string `json:"id"`
}

type emailAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Created      bool   `json:"created"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthenticateDevice logs in with a device id, creating the account when create is set.
func (c *NakamaClient) AuthenticateDevice(ctx context.Context, deviceID, username string, create bool) (*session.Session, error) {
	sess, err := c.authenticate(ctx, AuthenticateDeviceEndpoint, deviceAccount{ID: deviceID}, username, create)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate device: %w", err)
	}
	return sess, nil
}

// AuthenticateEmail logs in with email and password. With create set an
// unknown email registers a new account under username; without it the
// account must already exist.
func (c *NakamaClient) AuthenticateEmail(ctx context.Context, email, password, username string, create bool) (*session.Session, error) {
	sess, err := c.authenticate(ctx, AuthenticateEmailEndpoint, emailAccount{Email: email, Password: password}, username, create)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate email: %w", err)
	}
	return sess, nil
}

func (c *NakamaClient) authenticate(ctx context.Context, endpoint string, account any, username string, create bool) (*session.Session, error) {
	query := url.Values{}
	query.Set("create", strconv.FormatBool(create))
	if username != "" {
		query.Set("username", username)
	}

	body, err := c.PostJSON(ctx, endpoint+"?"+query.Encode(), account, c.serverKeyHeaders())
	if err != nil {
		return nil, err
	}

	var response sessionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	sess, err := session.Parse(response.Token, response.RefreshToken, response.Created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return sess, nil
}
