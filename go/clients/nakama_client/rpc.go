package nakama_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mcdev12/apexracer/go/internal/session"
)

type rpcResponse struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

// RPC invokes a server runtime function. jsonArgs is sent as the string
// payload the gateway expects; the returned payload is the function's raw JSON.
func (c *NakamaClient) RPC(ctx context.Context, sess *session.Session, name, jsonArgs string) (string, error) {
	headers, err := sessionHeaders(sess)
	if err != nil {
		return "", err
	}

	body, err := c.PostJSON(ctx, RPCEndpoint+url.PathEscape(name), jsonArgs, headers)
	if err != nil {
		return "", fmt.Errorf("failed to call rpc %s: %w", name, err)
	}

	var response rpcResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return response.Payload, nil
}
