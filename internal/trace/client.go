package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tracenet/core-go/internal/topology"
)

// Client calls the external path-trace service over HTTP. It is the
// production Tracer; tests substitute fakes.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the trace service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Trace fetches the traced path for deviceID.
func (c *Client) Trace(ctx context.Context, deviceID int64) (Result, error) {
	u, err := url.JoinPath(c.baseURL, "trace", topology.NodeID(deviceID))
	if err != nil {
		return Result{}, fmt.Errorf("trace url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("trace service returned %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode trace response: %w", err)
	}
	return res, nil
}
