package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/luckygas/luckygas/internal/request"
	"github.com/luckygas/luckygas/model"
	"github.com/pkg/errors"
)

// Client replays queued mutations to the Lucky Gas API and probes
// connectivity against its health endpoint.
type Client struct {
	serverURL string
	driverID  string
	token     string
	timeout   time.Duration
}

func NewClient(serverURL, driverID, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		serverURL: serverURL,
		driverID:  driverID,
		token:     token,
		timeout:   timeout,
	}
}

// Replay sends one queued mutation to the server. Every replay of the same
// item carries the same idempotency key, so a retry after a lost response
// cannot double-apply.
func (c *Client) Replay(ctx context.Context, item *model.QueueItem) error {
	body, err := request.ToJsonReq(map[string]interface{}{
		"id":        item.ID,
		"driver_id": c.driverID,
		"payload":   item.Payload,
		"timestamp": item.Timestamp,
	})
	if err != nil {
		return errors.Wrap(err, "encoding replay body")
	}

	url := fmt.Sprintf("%s/api/v1/sync/%s", c.serverURL, item.Type)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return errors.Wrap(err, "building replay request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Idempotency-Key", item.IdempotencyKey)

	var response map[string]interface{}
	resp, err := request.CallWithTimeout(req, &response, c.timeout)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return errors.Wrap(err, "sending replay request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("replay rejected with status %d", resp.StatusCode)
	}

	return nil
}

// Online reports whether the API health endpoint answers within the client
// timeout. The request context carries the deadline, so a dead network fails
// fast instead of hanging a sync pass.
func (c *Client) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/health", nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
