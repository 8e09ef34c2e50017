package conversion

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elegant-store/storefront/internal/domain/tracking"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewRepository(gdb), mock
}

func TestRepositoryRecord(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "delivery_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	entry := &DeliveryLog{
		EventName:      tracking.Purchase,
		EventID:        "evt-1",
		EventTime:      1714564800,
		UpstreamStatus: 200,
		OK:             true,
		LatencyMS:      42,
	}
	require.NoError(t, repo.Record(context.Background(), entry))

	assert.Equal(t, uint(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRecordError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "delivery_logs"`)).
		WillReturnError(assert.AnError)

	err := repo.Record(context.Background(), &DeliveryLog{EventName: tracking.PageView})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRepositoryRecent(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "event_name", "event_id", "event_time", "upstream_status", "ok", "error", "latency_ms", "created_at"}).
		AddRow(2, "Purchase", "evt-2", 1714564801, 400, false, "Bad Request", 80, created).
		AddRow(1, "AddToCart", "evt-1", 1714564800, 200, true, "", 35, created)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_logs" ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, tracking.Purchase, entries[0].EventName)
	assert.False(t, entries[0].OK)
	assert.Equal(t, "Bad Request", entries[0].Error)
	assert.Equal(t, tracking.AddToCart, entries[1].EventName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRecentClampsLimit(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_logs" ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Recent(context.Background(), 10000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryStats(t *testing.T) {
	repo, mock := newMockRepository(t)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"event_name", "total", "delivered", "avg_latency_ms"}).
		AddRow("AddToCart", int64(8), int64(6), 41.5).
		AddRow("Purchase", int64(2), int64(2), 80.0)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM delivery_logs`)).
		WithArgs(since).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, tracking.AddToCart, stats[0].EventName)
	assert.Equal(t, int64(8), stats[0].Total)
	assert.InDelta(t, 75.0, stats[0].SuccessRate, 1e-9)
	assert.InDelta(t, 41.5, stats[0].AvgLatencyMS, 1e-9)
	assert.InDelta(t, 100.0, stats[1].SuccessRate, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
