package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/scan"
	"github.com/itec-nfc/inventario/internal/store"
)

type scanRequest struct {
	Type       string          `json:"type"`
	Content    string          `json:"content"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
}

type nfcRequest struct {
	DeviceInfo json.RawMessage `json:"device_info"`
	NFCData    json.RawMessage `json:"nfc_data"`
}

// Scan handles POST /api/scan. The whole request document is kept with the
// reading.
func (h *Handler) Scan(c *fiber.Ctx) error {
	body := c.Body()
	var req scanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return scanError(c, fiber.StatusBadRequest, "Error procesando escaneo: JSON inválido.")
	}

	r, err := h.Scans.Ingest(c.UserContext(), scan.Input{
		Kind:       req.Type,
		Content:    req.Content,
		DeviceInfo: req.DeviceInfo,
		Raw:        json.RawMessage(append([]byte(nil), body...)),
		Addr:       c.IP(),
		Client:     c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		status, msg := failure(c, "ingesting scan", err)
		return scanError(c, status, "Error procesando escaneo: "+msg)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Escaneo " + r.Kind + " procesado correctamente.",
		"data": fiber.Map{
			"reading_id": r.ID,
			"content":    req.Content,
			"timestamp":  r.Timestamp,
		},
	})
}

// SubmitNFC handles POST /api/submit-nfc from older companion clients.
func (h *Handler) SubmitNFC(c *fiber.Ctx) error {
	var req nfcRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return scanError(c, fiber.StatusBadRequest, "Error procesando lectura NFC: JSON inválido.")
	}

	r, err := h.Scans.IngestNFC(c.UserContext(), req.DeviceInfo, req.NFCData, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		status, msg := failure(c, "ingesting nfc reading", err)
		return scanError(c, status, "Error procesando lectura NFC: "+msg)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Lectura NFC guardada correctamente",
		"reading_id": r.ID,
	})
}

// Readings handles GET /api/readings?limit=N, newest first.
func (h *Handler) Readings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.DefaultLimit)
	if limit <= 0 {
		limit = h.DefaultLimit
	}
	if h.MaxLimit > 0 && limit > h.MaxLimit {
		limit = h.MaxLimit
	}

	list, err := store.ListReadings(c.UserContext(), h.DB, limit)
	if err != nil {
		status, msg := failure(c, "listing readings", err)
		return scanError(c, status, "Error obteniendo lecturas: "+msg)
	}
	if list == nil {
		list = []model.ScanReading{}
	}
	return c.JSON(fiber.Map{"success": true, "readings": list, "total": len(list)})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := store.ReadingStats(c.UserContext(), h.DB)
	if err != nil {
		status, msg := failure(c, "loading reading stats", err)
		return scanError(c, status, "Error obteniendo estadísticas: "+msg)
	}
	return c.JSON(fiber.Map{"success": true, "stats": stats})
}
