// internal/interfaces/http/handlers/conversion.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// Relayer forwards a tracking request to the attribution service
type Relayer interface {
	Relay(ctx context.Context, req tracking.Request) (tracking.Result, error)
}

// ConversionHandler handles the server relay endpoint
type ConversionHandler struct {
	relay  Relayer
	logger logrus.FieldLogger
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(relay Relayer, logger logrus.FieldLogger) *ConversionHandler {
	return &ConversionHandler{
		relay:  relay,
		logger: logger,
	}
}

// TrackEvent handles POST /api/fb-capi and POST /api/v1/tracking/events
func (h *ConversionHandler) TrackEvent(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"ok":    false,
				"error": "request body too large",
			})
			return
		}
		data = nil
	}

	var req tracking.Request
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.WithError(err).Debug("Unparseable tracking body, using defaults")
			req = tracking.Request{}
		}
	}

	result, err := h.relay.Relay(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithField("event_name", req.EventName).Error("Relay failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
