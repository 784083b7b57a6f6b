package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edenorcraft/politbot/internal/types"
)

// Profile is what the identity service knows about a linked player.
type Profile struct {
	Username string `json:"username"`
}

type checkRequest struct {
	AuthType string `json:"authType"`
	Value    string `json:"value"`
}

// Checker asks the game server's account-linking API whether a chat account
// is tied to a player. Calls are bounded by a timeout and fail closed:
// anything but a clean 200 means "not linked".
type Checker struct {
	apiURL string
	token  string
	client *http.Client
}

func NewChecker(apiURL, token string) *Checker {
	return &Checker{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckPlayer reports whether the account is linked, with the player profile
// when it is. A non-nil error always means the upstream was unreachable or
// misbehaving; linked is false in that case and callers may treat the result
// as "not verified" without inspecting the error.
func (c *Checker) CheckPlayer(ctx context.Context, telegramID int64) (bool, *Profile, error) {
	body, err := json.Marshal(checkRequest{
		AuthType: "TELEGRAM",
		Value:    fmt.Sprintf("%d", telegramID),
	})
	if err != nil {
		return false, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return false, nil, err
	}

	req.Header.Set("X-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("identity check failed: %w: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var profile Profile

		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			return false, nil, fmt.Errorf("identity response: %w: %v", types.ErrUpstreamUnavailable, err)
		}

		return true, &profile, nil
	case http.StatusNotFound:
		return false, nil, nil
	default:
		return false, nil, fmt.Errorf("identity check returned status %d: %w", resp.StatusCode, types.ErrUpstreamUnavailable)
	}
}
