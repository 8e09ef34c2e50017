package sandbox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phoneHash = "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92"

func setupSandbox(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := NewStore()
	srv := httptest.NewServer(NewRouter(NewHandler(store, "sandbox-token", logger)))
	t.Cleanup(srv.Close)
	return srv, store
}

func postEvents(t *testing.T, srv *httptest.Server, query string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v19.0/123/events"+query, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func purchase() map[string]any {
	return map[string]any{
		"event_name":    "Purchase",
		"event_time":    1714564800,
		"action_source": "website",
		"user_data":     map[string]any{"ph": phoneHash},
		"custom_data":   map[string]any{"value": 250, "currency": "AED", "contents": []any{}},
	}
}

func TestReceiveEvents(t *testing.T) {
	srv, store := setupSandbox(t)

	status, body := postEvents(t, srv, "?access_token=sandbox-token", map[string]any{
		"data":            []any{purchase()},
		"test_event_code": "TEST1",
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["events_received"])
	assert.NotEmpty(t, body["fbtrace_id"])

	events := store.Events("Purchase")
	require.Len(t, events, 1)
	assert.Equal(t, "123", events[0].PixelID)
	assert.Equal(t, "TEST1", events[0].TestEventCode)
}

func TestReceiveEventsRejects(t *testing.T) {
	srv, store := setupSandbox(t)

	unhashed := purchase()
	unhashed["user_data"] = map[string]any{"ph": "971501234567"}
	noName := purchase()
	delete(noName, "event_name")

	tests := []struct {
		name  string
		query string
		body  any
		code  float64
	}{
		{"missing token", "", map[string]any{"data": []any{purchase()}}, 190},
		{"wrong token", "?access_token=nope", map[string]any{"data": []any{purchase()}}, 190},
		{"empty data", "?access_token=sandbox-token", map[string]any{"data": []any{}}, 100},
		{"unhashed phone", "?access_token=sandbox-token", map[string]any{"data": []any{unhashed}}, 100},
		{"missing event name", "?access_token=sandbox-token", map[string]any{"data": []any{noName}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postEvents(t, srv, tt.query, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)

			graphErr, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "OAuthException", graphErr["type"])
			assert.Equal(t, tt.code, graphErr["code"])
		})
	}

	assert.Empty(t, store.Events(""))
}

func TestBeaconAndAdmin(t *testing.T) {
	srv, store := setupSandbox(t)

	resp, err := http.Get(srv.URL + "/tr?id=PIX&ev=AddToCart&eid=evt-1&cd%5Bvalue%5D=120")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	beacons := store.Beacons("AddToCart")
	require.Len(t, beacons, 1)
	assert.Equal(t, "PIX", beacons[0].PixelID)
	assert.Equal(t, "evt-1", beacons[0].EventID)
	assert.Equal(t, "120", beacons[0].Params["cd[value]"])

	resp, err = http.Get(srv.URL + "/admin/beacons")
	require.NoError(t, err)
	var listed struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	assert.Equal(t, 1, listed.Total)

	resp, err = http.Post(srv.URL+"/admin/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, store.Beacons(""))
}
