package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/itec-nfc/inventario/internal/model"
)

// InsertReading appends a scan reading and returns it with its ID set.
func InsertReading(ctx context.Context, db *sqlx.DB, r model.ScanReading) (*model.ScanReading, error) {
	res, err := db.NamedExecContext(ctx,
		`INSERT INTO nfc_readings (device_info, nfc_data, scan_type, timestamp, formatted_time, ip_address, user_agent)
		 VALUES (:device_info, :nfc_data, :scan_type, :timestamp, :formatted_time, :ip_address, :user_agent)`, r)
	if err != nil {
		return nil, fmt.Errorf("inserting reading: %w", translate(err))
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting reading id: %w", translate(err))
	}
	return &r, nil
}

// ListReadings returns up to limit readings, newest first.
func ListReadings(ctx context.Context, db *sqlx.DB, limit int) ([]model.ScanReading, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", model.ErrInvalidArgument)
	}
	var list []model.ScanReading
	if err := db.SelectContext(ctx, &list,
		`SELECT id, device_info, nfc_data, scan_type, timestamp, formatted_time, ip_address, user_agent
		 FROM nfc_readings ORDER BY timestamp DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("listing readings: %w", translate(err))
	}
	return list, nil
}

// ReadingStats counts readings and distinct origin addresses and reports the
// display time of the latest reading, or model.NoReadings.
func ReadingStats(ctx context.Context, db *sqlx.DB) (*model.ScanStats, error) {
	var row struct {
		Total  int            `db:"total_readings"`
		Unique int            `db:"unique_devices"`
		Last   sql.NullString `db:"last_reading_time"`
	}
	err := db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total_readings,
		       COUNT(DISTINCT ip_address) AS unique_devices,
		       (SELECT formatted_time FROM nfc_readings ORDER BY timestamp DESC, id DESC LIMIT 1) AS last_reading_time
		FROM nfc_readings`)
	if err != nil {
		return nil, fmt.Errorf("loading reading stats: %w", translate(err))
	}

	stats := &model.ScanStats{
		TotalReadings:   row.Total,
		UniqueDevices:   row.Unique,
		LastReadingTime: model.NoReadings,
	}
	if row.Last.Valid && row.Last.String != "" {
		stats.LastReadingTime = row.Last.String
	}
	return stats, nil
}
