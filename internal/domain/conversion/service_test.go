package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elegant-store/storefront/internal/config"
	"github.com/elegant-store/storefront/internal/domain/tracking"
)

var relayNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memoryRecorder struct {
	mu      sync.Mutex
	entries []DeliveryLog
}

func (m *memoryRecorder) Record(_ context.Context, entry *DeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

type upstream struct {
	*httptest.Server
	mu     sync.Mutex
	path   string
	query  string
	bodies [][]byte
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.path = r.URL.Path
		u.query = r.URL.RawQuery
		u.bodies = append(u.bodies, data)
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) received() (path, query string, bodies [][]byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.path, u.query, append([][]byte(nil), u.bodies...)
}

func testConfig(baseURL string) config.TrackingConfig {
	return config.TrackingConfig{
		PixelID:          "1234567890",
		AccessToken:      "secret-token",
		GraphBaseURL:     baseURL,
		GraphAPIVersion:  "v17.0",
		UpstreamTimeout:  time.Second,
		DefaultCurrency:  "AED",
		PhoneCountryCode: "971",
	}
}

func newTestService(cfg config.TrackingConfig, recorder DeliveryRecorder) *Service {
	logger, _ := test.NewNullLogger()
	s := NewService(cfg, recorder, logger)
	s.now = func() time.Time { return relayNow }
	return s
}

func TestRelayRequiresCredentials(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)

	for _, cfg := range []config.TrackingConfig{
		{AccessToken: "secret-token", GraphBaseURL: up.URL},
		{PixelID: "1234567890", GraphBaseURL: up.URL},
	} {
		s := newTestService(cfg, nil)
		_, err := s.Relay(context.Background(), tracking.Request{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	}

	_, _, bodies := up.received()
	assert.Empty(t, bodies)
}

func TestRelayForwardsNormalizedEvent(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"events_received":1,"messages":[],"fbtrace_id":"abc"}`)
	recorder := &memoryRecorder{}
	cfg := testConfig(up.URL)
	cfg.TestEventCode = "TEST123"

	res, err := newTestService(cfg, recorder).Relay(context.Background(), tracking.Request{
		EventID:        "evt-1",
		EventSourceURL: "http://localhost:3000/checkout",
		UserData: &tracking.UserData{
			Phone:           "0501234567",
			Email:           " Sara@Example.com",
			FirstName:       "Sara",
			ClientUserAgent: "Mozilla/5.0",
			FBP:             "fb.1.1714564800000.123456",
		},
		CustomData: &tracking.CustomData{
			Value: 399.5,
			Contents: []tracking.Content{
				{ID: "1", Quantity: 2, ItemPrice: 100},
				{ID: "5", Quantity: 1, ItemPrice: 149.5},
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, map[string]any{
		"events_received": float64(1),
		"messages":        []any{},
		"fbtrace_id":      "abc",
	}, res.Body)

	path, query, bodies := up.received()
	assert.Equal(t, "/v17.0/1234567890/events", path)
	assert.Equal(t, "access_token=secret-token", query)

	require.Len(t, bodies, 1)
	var pretty bytes.Buffer
	require.NoError(t, json.Indent(&pretty, bodies[0], "", "  "))
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "upstream_purchase", pretty.Bytes())

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, tracking.Purchase, entry.EventName)
	assert.Equal(t, "evt-1", entry.EventID)
	assert.Equal(t, http.StatusOK, entry.UpstreamStatus)
	assert.True(t, entry.OK)
}

func TestRelayDefaultsEmptyRequest(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"events_received":1}`)

	res, err := newTestService(testConfig(up.URL), nil).Relay(context.Background(), tracking.Request{})
	require.NoError(t, err)
	assert.True(t, res.OK)

	_, _, bodies := up.received()
	var sent UpstreamRequest
	require.Len(t, bodies, 1)
	require.NoError(t, json.Unmarshal(bodies[0], &sent))
	require.Len(t, sent.Data, 1)

	ev := sent.Data[0]
	assert.Equal(t, tracking.Purchase, ev.EventName)
	assert.Equal(t, relayNow.Unix(), ev.EventTime)
	assert.Equal(t, "website", ev.ActionSource)
	assert.Equal(t, tracking.Amount(0), ev.CustomData.Value)
	assert.Equal(t, "AED", ev.CustomData.Currency)
	assert.Empty(t, ev.CustomData.Contents)
	assert.NotContains(t, string(bodies[0]), "test_event_code")
}

func TestRelayReportsUpstreamRejection(t *testing.T) {
	up := newUpstream(t, http.StatusBadRequest, `{"error":{"message":"Invalid OAuth access token.","code":190}}`)
	recorder := &memoryRecorder{}

	res, err := newTestService(testConfig(up.URL), recorder).Relay(context.Background(), tracking.Request{})
	require.NoError(t, err)

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, map[string]any{
		"error": map[string]any{"message": "Invalid OAuth access token.", "code": float64(190)},
	}, res.Body)

	require.Len(t, recorder.entries, 1)
	assert.False(t, recorder.entries[0].OK)
	assert.Equal(t, "Bad Request", recorder.entries[0].Error)
}

func TestRelayNonJSONUpstreamBody(t *testing.T) {
	up := newUpstream(t, http.StatusBadGateway, `<html>oops</html>`)

	res, err := newTestService(testConfig(up.URL), nil).Relay(context.Background(), tracking.Request{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, res.Body)
	assert.Equal(t, http.StatusBadGateway, res.Status)
}

func TestRelayTransportFailure(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	baseURL := up.URL
	up.Close()
	recorder := &memoryRecorder{}

	_, err := newTestService(testConfig(baseURL), recorder).Relay(context.Background(), tracking.Request{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")

	require.Len(t, recorder.entries, 1)
	assert.False(t, recorder.entries[0].OK)
	assert.Zero(t, recorder.entries[0].UpstreamStatus)
	assert.NotContains(t, recorder.entries[0].Error, "secret-token")
}
