// internal/domain/conversion/entity.go
package conversion

import (
	"time"

	"github.com/elegant-store/storefront/internal/domain/tracking"
)

// DeliveryLog records one relay delivery. It holds no user data and not
// the event itself, only what is needed to audit delivery health.
type DeliveryLog struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	EventName      tracking.EventName `gorm:"size:64;not null;index" json:"event_name"`
	EventID        string             `gorm:"size:128;index" json:"event_id,omitempty"`
	EventTime      int64              `gorm:"not null" json:"event_time"`
	UpstreamStatus int                `gorm:"not null" json:"upstream_status"`
	OK             bool               `gorm:"not null" json:"ok"`
	Error          string             `gorm:"size:512" json:"error,omitempty"`
	LatencyMS      int64              `gorm:"not null" json:"latency_ms"`
	CreatedAt      time.Time          `json:"created_at"`
}

// TableName overrides the table name
func (DeliveryLog) TableName() string {
	return "delivery_logs"
}

// EventStats is the delivery health of one event name over a period
type EventStats struct {
	EventName    tracking.EventName `gorm:"column:event_name" json:"event_name"`
	Total        int64              `gorm:"column:total" json:"total"`
	Delivered    int64              `gorm:"column:delivered" json:"delivered"`
	AvgLatencyMS float64            `gorm:"column:avg_latency_ms" json:"avg_latency_ms"`
	SuccessRate  float64            `gorm:"-" json:"success_rate"` // Percentage
}

// UpstreamRequest is the body posted to the attribution service's events
// endpoint
type UpstreamRequest struct {
	Data          []tracking.Event `json:"data"`
	TestEventCode string           `json:"test_event_code,omitempty"`
}
