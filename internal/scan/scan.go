// Package scan records NFC, QR and barcode readings sent by companion
// clients and pushes them to live dashboards.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/store"
)

// TimestampLayout is the fixed-width machine timestamp. Readings sort by it
// as text, so fractional digits are never trimmed.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DisplayLayout formats the human-readable reading time.
const DisplayLayout = "2006-01-02 15:04:05"

// Input is one scan as received from a client.
type Input struct {
	Kind       string
	Content    string
	DeviceInfo json.RawMessage
	Raw        json.RawMessage // the full request document
	Addr       string
	Client     string
}

// Payload is the scan document stored in nfc_data.
type Payload struct {
	Type     string          `json:"type"`
	Content  string          `json:"content"`
	ScanType string          `json:"scan_type"`
	RawData  json.RawMessage `json:"raw_data"`
}

// Broadcast is the event payload for a new reading.
type Broadcast struct {
	*model.ScanReading
	EventID string `json:"event_id"`
}

// Ingester persists readings and publishes them. Hub may be nil.
type Ingester struct {
	DB  *sqlx.DB
	Hub *realtime.Hub
	Now func() time.Time
}

// NormalizeKind lower-cases kind and maps anything unknown to
// model.ScanUnknown.
func NormalizeKind(kind string) string {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case model.ScanNFC, model.ScanQR, model.ScanBarcode:
		return k
	default:
		return model.ScanUnknown
	}
}

// Ingest stores a scan and broadcasts it together with refreshed stats.
// Empty content is stored as is. Nothing is broadcast when the insert fails.
func (ing *Ingester) Ingest(ctx context.Context, in Input) (*model.ScanReading, error) {
	kind := NormalizeKind(in.Kind)

	data, err := json.Marshal(Payload{
		Type:     strings.ToUpper(kind),
		Content:  in.Content,
		ScanType: kind,
		RawData:  document(in.Raw),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding scan payload: %w", err)
	}

	r, err := ing.save(ctx, kind, in.DeviceInfo, data, in.Addr, in.Client)
	if err != nil {
		return nil, err
	}
	ing.publish(ctx, realtime.EventNewScanReading, r)
	return r, nil
}

// IngestNFC stores a reading from the legacy companion endpoint, whose
// client sends ready-made device and NFC documents.
func (ing *Ingester) IngestNFC(ctx context.Context, deviceInfo, nfcData json.RawMessage, addr, client string) (*model.ScanReading, error) {
	if !validDocument(deviceInfo) || !validDocument(nfcData) {
		return nil, fmt.Errorf("%w: device_info and nfc_data must be JSON", model.ErrInvalidArgument)
	}
	r, err := ing.save(ctx, model.ScanNFC, deviceInfo, document(nfcData), addr, client)
	if err != nil {
		return nil, err
	}
	ing.publish(ctx, realtime.EventNewNFCReading, r)
	return r, nil
}

func (ing *Ingester) save(ctx context.Context, kind string, deviceInfo, data json.RawMessage, addr, client string) (*model.ScanReading, error) {
	if !validDocument(deviceInfo) {
		return nil, fmt.Errorf("%w: device info must be JSON", model.ErrInvalidArgument)
	}

	now := time.Now
	if ing.Now != nil {
		now = ing.Now
	}
	at := now().UTC()

	return store.InsertReading(ctx, ing.DB, model.ScanReading{
		DeviceInfo:    string(document(deviceInfo)),
		Data:          string(data),
		Kind:          kind,
		Timestamp:     at.Format(TimestampLayout),
		FormattedTime: at.Format(DisplayLayout),
		IPAddress:     addr,
		UserAgent:     client,
	})
}

func (ing *Ingester) publish(ctx context.Context, event string, r *model.ScanReading) {
	if ing.Hub == nil {
		return
	}
	ing.Hub.Publish(event, Broadcast{ScanReading: r, EventID: uuid.NewString()})

	stats, err := store.ReadingStats(ctx, ing.DB)
	if err != nil {
		log.Warn().Err(err).Int64("reading", r.ID).Msg("refreshing scan stats")
		return
	}
	ing.Hub.Publish(realtime.EventStatsUpdate, stats)
}

func validDocument(raw json.RawMessage) bool {
	return len(raw) == 0 || json.Valid(raw)
}

// document returns raw, or an empty object when nothing was sent.
func document(raw json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
