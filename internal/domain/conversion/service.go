// internal/domain/conversion/service.go
package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// ErrNotConfigured means the attribution service credentials are missing
var ErrNotConfigured = errors.New("env missing: FB_PIXEL_ID and FB_ACCESS_TOKEN are required")

// DeliveryRecorder persists delivery logs
type DeliveryRecorder interface {
	Record(ctx context.Context, entry *DeliveryLog) error
}

// Service relays tracking events to the attribution service
type Service struct {
	config     config.TrackingConfig
	httpClient *http.Client
	recorder   DeliveryRecorder
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewService creates a new relay service. recorder may be nil.
func NewService(cfg config.TrackingConfig, recorder DeliveryRecorder, logger logrus.FieldLogger) *Service {
	return &Service{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Configured reports whether both attribution secrets are set
func (s *Service) Configured() bool {
	return s.config.PixelID != "" && s.config.AccessToken != ""
}

// Relay normalizes req and forwards it upstream. The upstream status and
// decoded body come back unchanged in the result, including upstream
// rejections. An error is returned only when the service is not configured
// or no upstream response arrived.
func (s *Service) Relay(ctx context.Context, req tracking.Request) (tracking.Result, error) {
	if !s.Configured() {
		return tracking.Result{}, ErrNotConfigured
	}

	event := tracking.Normalize(req, tracking.DefaultsFor(s.config.DefaultCurrency, s.config.PhoneCountryCode), s.now())

	payload, err := json.Marshal(UpstreamRequest{
		Data:          []tracking.Event{event},
		TestEventCode: s.config.TestEventCode,
	})
	if err != nil {
		return tracking.Result{}, fmt.Errorf("failed to encode event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.eventsURL(), bytes.NewReader(payload))
	if err != nil {
		return tracking.Result{}, fmt.Errorf("failed to build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := s.now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		s.record(ctx, event, 0, started, err)
		return tracking.Result{}, fmt.Errorf("upstream request failed: %w", redactToken(err, s.config.AccessToken))
	}
	defer resp.Body.Close()

	result := tracking.Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Body:   decodeUpstream(resp.Body),
	}

	fields := logrus.Fields{
		"event_name": event.EventName,
		"event_id":   event.EventID,
		"status":     result.Status,
	}
	if result.OK {
		s.logger.WithFields(fields).Info("Event relayed")
		s.record(ctx, event, result.Status, started, nil)
	} else {
		s.logger.WithFields(fields).Warn("Attribution service rejected event")
		s.record(ctx, event, result.Status, started, errors.New(http.StatusText(result.Status)))
	}

	return result, nil
}

func (s *Service) eventsURL() string {
	base := strings.TrimRight(s.config.GraphBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		base, s.config.GraphAPIVersion, url.PathEscape(s.config.PixelID), url.QueryEscape(s.config.AccessToken))
}

func (s *Service) record(ctx context.Context, event tracking.Event, status int, started time.Time, failure error) {
	if s.recorder == nil {
		return
	}

	entry := &DeliveryLog{
		EventName:      event.EventName,
		EventID:        event.EventID,
		EventTime:      event.EventTime,
		UpstreamStatus: status,
		OK:             failure == nil,
		LatencyMS:      s.now().Sub(started).Milliseconds(),
	}
	if failure != nil {
		entry.Error = truncate(redactToken(failure, s.config.AccessToken).Error(), 512)
	}

	if err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record delivery")
	}
}

func decodeUpstream(r io.Reader) any {
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

// redactToken strips the access token from errors that echo the URL
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "REDACTED"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
