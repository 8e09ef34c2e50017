// internal/interfaces/http/handlers/delivery_admin.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/domain/conversion"
)

// DeliveryLister reads the relay delivery log
type DeliveryLister interface {
	Recent(ctx context.Context, limit int) ([]conversion.DeliveryLog, error)
	Stats(ctx context.Context, since time.Time) ([]conversion.EventStats, error)
}

// DeliveryAdminHandler exposes the delivery log to operators
type DeliveryAdminHandler struct {
	deliveries DeliveryLister
	logger     logrus.FieldLogger
}

// NewDeliveryAdminHandler creates a new handler. deliveries may be nil when
// the delivery log is disabled.
func NewDeliveryAdminHandler(deliveries DeliveryLister, logger logrus.FieldLogger) *DeliveryAdminHandler {
	return &DeliveryAdminHandler{
		deliveries: deliveries,
		logger:     logger,
	}
}

// GetDeliveries handles GET /admin/deliveries
func (h *DeliveryAdminHandler) GetDeliveries(c *gin.Context) {
	if h.deliveries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Delivery log is disabled",
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		limit = n
	}

	logs, err := h.deliveries.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read delivery log")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve deliveries",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deliveries retrieved successfully",
		"data":    logs,
		"total":   len(logs),
	})
}

// GetDeliveryStats handles GET /admin/deliveries/stats?hours=N
func (h *DeliveryAdminHandler) GetDeliveryStats(c *gin.Context) {
	if h.deliveries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Delivery log is disabled",
		})
		return
	}

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 720 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "hours must be between 1 and 720",
			})
			return
		}
		hours = n
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats, err := h.deliveries.Stats(c.Request.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute delivery stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve delivery stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery stats retrieved successfully",
		"data": gin.H{
			"since":  since.UTC(),
			"hours":  hours,
			"events": stats,
		},
	})
}
