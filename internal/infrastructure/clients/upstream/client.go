package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tinysteps/report-service/pkg/resilience"
)

// Client is the shared HTTP core for all upstream service calls. It carries
// no per-call timeout of its own; deadlines arrive on the request context
// from the resilience layer.
type Client struct {
	baseURL        string
	internalSecret string
	httpClient     *http.Client
}

// NewClient creates a client for one upstream service base URL
func NewClient(baseURL, internalSecret string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		internalSecret: internalSecret,
		httpClient:     &http.Client{},
	}
}

// GetJSON performs a GET against the endpoint path and decodes the response
// body into out. Failures are reported as resilience call errors so callers
// can classify them without inspecting transport details.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return &resilience.CallError{Kind: resilience.KindTransport, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if token := AuthTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.internalSecret != "" {
		req.Header.Set("X-Internal-Secret", c.internalSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resilience.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resilience.NewCallError(resp.StatusCode, fmt.Errorf("GET %s: %s", endpoint, readErrorBody(resp.Body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &resilience.CallError{Kind: resilience.KindTransport, Err: fmt.Errorf("decoding GET %s response: %w", endpoint, err)}
	}

	return nil
}

// readErrorBody returns a short snippet of the error response for logging
func readErrorBody(body io.Reader) string {
	snippet, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil || len(snippet) == 0 {
		return "(no body)"
	}
	return strings.TrimSpace(string(snippet))
}
