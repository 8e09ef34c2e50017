// internal/domain/conversion/repository.go
package conversion

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository stores delivery logs in the database
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new delivery log repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts a delivery log
func (r *Repository) Record(ctx context.Context, entry *DeliveryLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// Recent returns the latest delivery logs, newest first
func (r *Repository) Recent(ctx context.Context, limit int) ([]DeliveryLog, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}

	var entries []DeliveryLog
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve deliveries: %w", err)
	}
	return entries, nil
}

// Stats summarizes deliveries per event name since the given time
func (r *Repository) Stats(ctx context.Context, since time.Time) ([]EventStats, error) {
	var stats []EventStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			event_name,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN ok THEN 1 ELSE 0 END), 0) AS delivered,
			COALESCE(AVG(latency_ms), 0) AS avg_latency_ms
		FROM delivery_logs
		WHERE created_at >= ?
		GROUP BY event_name
		ORDER BY total DESC
	`, since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute delivery stats: %w", err)
	}

	for i := range stats {
		if stats[i].Total > 0 {
			stats[i].SuccessRate = float64(stats[i].Delivered) / float64(stats[i].Total) * 100
		}
	}
	return stats, nil
}
