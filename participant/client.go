package participant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beckn-mesh/network/auth"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/pkg/version"
)

const defaultClientTimeout = 30 * time.Second

// Client is the outgoing signed HTTP client of §4.6: it wraps a body,
// builds the auth header under the given identity, POSTs it, and
// surfaces the parsed JSON response to the caller. It never retries —
// callers decide whether to retry the synchronous leg.
type Client struct {
	httpClient *http.Client
	identity   Identity
	log        logger.Logger
}

// NewClient builds a Client signing as identity.
func NewClient(identity Identity, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		identity:   identity,
		log:        log,
	}
}

// Post signs body and POSTs it to url, decoding the JSON response into
// out (if non-nil). Any non-200 status is logged as a warning but the
// parsed body is still returned to the caller rather than treated as
// an error, per §4.6's outgoing-client contract.
func (c *Client) Post(ctx context.Context, url string, body []byte, out interface{}) error {
	status, respBody, err := c.PostRaw(ctx, url, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		c.log.Warn("non-200 response from peer",
			logger.String("url", url), logger.Int("status", status))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
	}
	return nil
}

// PostRaw signs body and POSTs it to url, returning the raw status code
// and response body without interpreting either. Callers that need to
// branch on the status themselves — the Gateway's delivery worker
// distinguishing a retryable failure from a permanent POLICY-ERROR
// NACK — use this directly instead of Post.
func (c *Client) PostRaw(ctx context.Context, url string, body []byte) (int, []byte, error) {
	header, err := auth.BuildAuthHeader(auth.BuildOptions{
		SubscriberID: c.identity.SubscriberID,
		UniqueKeyID:  c.identity.UniqueKeyID,
		Domain:       c.identity.Domain,
		PrivateKey:   c.identity.Signer,
		Body:         body,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build auth header: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", header)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return resp.StatusCode, respBody, nil
}
