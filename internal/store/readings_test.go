package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/db"
	"github.com/itec-nfc/inventario/internal/model"
)

func TestReadingStatsEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	stats, err := ReadingStats(context.Background(), database)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReadings)
	assert.Zero(t, stats.UniqueDevices)
	assert.Equal(t, model.NoReadings, stats.LastReadingTime)
}

func TestInsertAndListReadings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, r := range []model.ScanReading{
		{Kind: model.ScanNFC, Data: `{"content":"a"}`, Timestamp: "2026-01-01T10:00:00Z", FormattedTime: "2026-01-01 10:00:00", IPAddress: "10.0.0.1"},
		{Kind: model.ScanQR, Data: `{"content":"b"}`, Timestamp: "2026-01-01T10:05:00Z", FormattedTime: "2026-01-01 10:05:00", IPAddress: "10.0.0.2"},
		{Kind: model.ScanQR, Data: `{"content":"c"}`, Timestamp: "2026-01-01T10:10:00Z", FormattedTime: "2026-01-01 10:10:00", IPAddress: "10.0.0.1"},
	} {
		r.DeviceInfo = "{}"
		saved, err := InsertReading(ctx, database, r)
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
	}

	list, err := ListReadings(ctx, database, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, `{"content":"c"}`, list[0].Data)
	assert.Equal(t, `{"content":"b"}`, list[1].Data)

	stats, err := ReadingStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReadings)
	assert.Equal(t, 2, stats.UniqueDevices)
	assert.Equal(t, "2026-01-01 10:10:00", stats.LastReadingTime)

	_, err = ListReadings(ctx, database, 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
