// internal/domain/pixel/sender.go
package pixel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BeaconSender delivers commands as GET requests to the pixel beacon
// endpoint (/tr), the way the vendor script reports events
type BeaconSender struct {
	endpoint string
	client   *http.Client
}

// NewBeaconSender creates a sender for endpoint
func NewBeaconSender(endpoint string, timeout time.Duration) *BeaconSender {
	return &BeaconSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *BeaconSender) Send(ctx context.Context, pixelID string, cmd Command) error {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return fmt.Errorf("invalid beacon endpoint: %w", err)
	}
	u.RawQuery = BeaconQuery(pixelID, cmd).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build beacon request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("beacon request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("beacon rejected with status %d", resp.StatusCode)
	}
	return nil
}

// BeaconQuery encodes a command as beacon query parameters
func BeaconQuery(pixelID string, cmd Command) url.Values {
	q := url.Values{}
	q.Set("id", pixelID)
	q.Set("ev", string(cmd.Event.Name))
	q.Set("ts", strconv.FormatInt(cmd.At.UnixMilli(), 10))
	if cmd.Event.EventID != "" {
		q.Set("eid", cmd.Event.EventID)
	}
	if cmd.Event.SourceURL != "" {
		q.Set("dl", cmd.Event.SourceURL)
	}

	cd := cmd.Event.CustomData
	if cd.Value != 0 {
		q.Set("cd[value]", strconv.FormatFloat(float64(cd.Value), 'f', -1, 64))
	}
	if cd.Currency != "" {
		q.Set("cd[currency]", cd.Currency)
	}
	if len(cd.Contents) > 0 {
		if contents, err := json.Marshal(cd.Contents); err == nil {
			q.Set("cd[contents]", string(contents))
		}
	}
	return q
}
