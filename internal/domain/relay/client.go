// internal/domain/relay/client.go
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// Client posts tracking requests to the server relay endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient creates a relay client for endpoint
func NewClient(endpoint string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send posts req and reports the endpoint's answer. It never returns an
// error: when no response arrives the result is {ok:false, status:0,
// body:nil}, and a body that is not JSON decodes to an empty object.
func (c *Client) Send(ctx context.Context, req tracking.Request) tracking.Result {
	payload, err := json.Marshal(req)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode relay request")
		return tracking.Result{}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.WithError(err).Warn("Failed to build relay request")
		return tracking.Result{}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("endpoint", c.endpoint).Warn("Relay request failed")
		return tracking.Result{}
	}
	defer resp.Body.Close()

	return tracking.Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Body:   decodeBody(resp.Body),
	}
}

func decodeBody(r io.Reader) any {
	data, err := io.ReadAll(r)
	if err != nil {
		return map[string]any{}
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}
