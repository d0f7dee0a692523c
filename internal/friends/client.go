package friends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Provider supplies the relationship data this service depends on but does
// not own: who a user's friends are and whether two users are friends.
type Provider interface {
	Friends(ctx context.Context, userID int64) ([]int64, error)
	AreFriends(ctx context.Context, userID, friendID int64) (bool, error)
}

// Client talks to the user service's internal HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client against the user service base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Friends lists the ids of the user's friends.
func (c *Client) Friends(ctx context.Context, userID int64) ([]int64, error) {
	var resp struct {
		FriendIDs []int64 `json:"friend_ids"`
	}
	url := fmt.Sprintf("%s/internal/users/%d/friends", c.baseURL, userID)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.FriendIDs, nil
}

// AreFriends verifies friendship between two users.
func (c *Client) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	var resp struct {
		AreFriends bool `json:"are_friends"`
	}
	url := fmt.Sprintf("%s/internal/users/%d/friends/%d", c.baseURL, userID, friendID)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return false, err
	}
	return resp.AreFriends, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("user service returned %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
