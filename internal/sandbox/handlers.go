// internal/sandbox/handlers.go
package sandbox

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var sha256Hex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// fields the events endpoint requires to be hashed
var hashedFields = []string{"em", "ph", "fn", "ln"}

// Handler serves the emulated attribution API
type Handler struct {
	store       *Store
	accessToken string
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewHandler creates a handler. An empty accessToken accepts any
// non-empty token.
func NewHandler(store *Store, accessToken string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		store:       store,
		accessToken: accessToken,
		logger:      logger,
		now:         time.Now,
	}
}

// NewRouter builds a chi router with the sandbox routes mounted
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.Routes(r)
	return r
}

// Routes mounts the emulated API and the admin extras
func (h *Handler) Routes(r chi.Router) {
	r.Post("/{version}/{pixelID}/events", h.ReceiveEvents)
	r.Get("/tr", h.ReceiveBeacon)
	r.Get("/tr/", h.ReceiveBeacon)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/events", h.AdminListEvents)
		r.Get("/beacons", h.AdminListBeacons)
		r.Post("/reset", h.AdminReset)
	})
}

type eventsRequest struct {
	Data          []json.RawMessage `json:"data"`
	TestEventCode string            `json:"test_event_code,omitempty"`
}

type eventHead struct {
	EventName    string                     `json:"event_name"`
	EventTime    int64                      `json:"event_time"`
	ActionSource string                     `json:"action_source"`
	UserData     map[string]json.RawMessage `json:"user_data"`
}

// ReceiveEvents handles POST /{version}/{pixelID}/events
func (h *Handler) ReceiveEvents(w http.ResponseWriter, r *http.Request) {
	traceID := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	token := r.URL.Query().Get("access_token")
	if token == "" || (h.accessToken != "" && token != h.accessToken) {
		graphError(w, http.StatusBadRequest, 190, "Invalid OAuth access token - Cannot parse access token", traceID)
		return
	}

	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		graphError(w, http.StatusBadRequest, 100, "Invalid parameter: body is not valid JSON", traceID)
		return
	}
	if len(req.Data) == 0 {
		graphError(w, http.StatusBadRequest, 100, "Invalid parameter: data must be a non-empty array", traceID)
		return
	}

	pixelID := chi.URLParam(r, "pixelID")
	received := make([]ReceivedEvent, 0, len(req.Data))
	for i, raw := range req.Data {
		if msg := validateEvent(raw); msg != "" {
			h.logger.WithFields(logrus.Fields{"index": i, "pixel_id": pixelID}).Warn("Sandbox rejected event: " + msg)
			graphError(w, http.StatusBadRequest, 100, "Invalid parameter: "+msg, traceID)
			return
		}
		received = append(received, ReceivedEvent{
			PixelID:       pixelID,
			TestEventCode: req.TestEventCode,
			TraceID:       traceID,
			Event:         raw,
			ReceivedAt:    h.now().UTC(),
		})
	}
	h.store.addEvents(received...)

	h.logger.WithFields(logrus.Fields{
		"pixel_id": pixelID,
		"count":    len(received),
		"version":  chi.URLParam(r, "version"),
	}).Info("Sandbox received events")

	writeJSON(w, http.StatusOK, map[string]any{
		"events_received": len(received),
		"messages":        []string{},
		"fbtrace_id":      traceID,
	})
}

func validateEvent(raw json.RawMessage) string {
	var head eventHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return "event is not an object"
	}
	if head.EventName == "" {
		return "event_name is required"
	}
	if head.EventTime <= 0 {
		return "event_time is required"
	}
	if head.ActionSource == "" {
		return "action_source is required"
	}
	for _, field := range hashedFields {
		value, ok := head.UserData[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil || !sha256Hex.MatchString(s) {
			return "user_data." + field + " must be a SHA-256 hash"
		}
	}
	return ""
}

// ReceiveBeacon handles GET /tr
func (h *Handler) ReceiveBeacon(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}

	h.store.addBeacon(Beacon{
		PixelID:    q.Get("id"),
		Event:      q.Get("ev"),
		EventID:    q.Get("eid"),
		Params:     params,
		ReceivedAt: h.now().UTC(),
	})

	w.WriteHeader(http.StatusOK)
}

// AdminListEvents handles GET /admin/events?event_name=
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.store.Events(r.URL.Query().Get("event_name"))
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  len(events),
	})
}

// AdminListBeacons handles GET /admin/beacons?event=
func (h *Handler) AdminListBeacons(w http.ResponseWriter, r *http.Request) {
	beacons := h.store.Beacons(r.URL.Query().Get("event"))
	writeJSON(w, http.StatusOK, map[string]any{
		"beacons": beacons,
		"total":   len(beacons),
	})
}

// AdminReset handles POST /admin/reset
func (h *Handler) AdminReset(w http.ResponseWriter, _ *http.Request) {
	h.store.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func graphError(w http.ResponseWriter, status, code int, message, traceID string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":    message,
			"type":       "OAuthException",
			"code":       code,
			"fbtrace_id": traceID,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
