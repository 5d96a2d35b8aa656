package model

// Scan kinds accepted from companion clients.
const (
	ScanNFC     = "nfc"
	ScanQR      = "qr"
	ScanBarcode = "barcode"
	ScanUnknown = "unknown"
)

// ScanReading is a persisted scan event. DeviceInfo and Data hold the JSON
// documents sent by the client.
type ScanReading struct {
	ID            int64  `db:"id" json:"id"`
	DeviceInfo    string `db:"device_info" json:"device_info"`
	Data          string `db:"nfc_data" json:"nfc_data"`
	Kind          string `db:"scan_type" json:"scan_type"`
	Timestamp     string `db:"timestamp" json:"timestamp"`
	FormattedTime string `db:"formatted_time" json:"formatted_time"`
	IPAddress     string `db:"ip_address" json:"ip_address"`
	UserAgent     string `db:"user_agent" json:"user_agent"`
}

// NoReadings is shown as the last reading time when nothing was scanned yet.
const NoReadings = "Ninguna"

// ScanStats summarizes stored readings.
type ScanStats struct {
	TotalReadings   int    `db:"total_readings" json:"total_readings"`
	UniqueDevices   int    `db:"unique_devices" json:"unique_devices"`
	LastReadingTime string `json:"last_reading_time"`
}
