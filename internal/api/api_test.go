package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/auth"
	"github.com/itec-nfc/inventario/internal/db"
	"github.com/itec-nfc/inventario/internal/model"
	"github.com/itec-nfc/inventario/internal/realtime"
	"github.com/itec-nfc/inventario/internal/scan"
	"github.com/itec-nfc/inventario/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	app *fiber.App
	db  *sqlx.DB
	hub *realtime.Hub
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	hub := realtime.NewHub(16)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	Register(app, &Handler{
		DB:           database,
		JWTSecret:    testJWTSecret,
		TokenTTL:     time.Hour,
		Scans:        &scan.Ingester{DB: database, Hub: hub},
		DefaultLimit: 50,
		MaxLimit:     3,
	})
	return &testServer{app: app, db: database, hub: hub}
}

func (s *testServer) createUser(t *testing.T, rut, first, role string, active bool) *model.User {
	t.Helper()
	ctx := context.Background()
	r, err := store.GetRoleByName(ctx, s.db, role)
	require.NoError(t, err)
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	u, err := store.CreateUser(ctx, s.db,
		model.Person{RUT: rut, DV: "1", FirstName: first, FatherSurname: "Rojas"},
		store.Account{PasswordHash: hash, RoleID: &r.ID, Active: active},
	)
	require.NoError(t, err)
	return u
}

func (s *testServer) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderUserAgent, "TestAgent")
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	resp := s.request(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": username, "password": "password"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out loginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestScanEndpoint(t *testing.T) {
	s := setupTestServer(t)
	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	resp := s.request(t, http.MethodPost, "/api/scan", "", map[string]any{
		"type":       "NFC",
		"content":    "abc123",
		"deviceInfo": map[string]string{"model": "Pixel"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			ReadingID int64  `json:"reading_id"`
			Content   string `json:"content"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	}
	decode(t, resp, &out)
	assert.True(t, out.Success)
	assert.Equal(t, "Escaneo nfc procesado correctamente.", out.Message)
	assert.NotZero(t, out.Data.ReadingID)
	assert.Equal(t, "abc123", out.Data.Content)
	_, err := time.Parse(time.RFC3339Nano, out.Data.Timestamp)
	assert.NoError(t, err)

	ev := <-sub.C
	assert.Equal(t, realtime.EventNewScanReading, ev.Name)
	ev = <-sub.C
	assert.Equal(t, realtime.EventStatsUpdate, ev.Name)

	list, err := store.ListReadings(context.Background(), s.db, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "TestAgent", list[0].UserAgent)
	assert.Equal(t, model.ScanNFC, list[0].Kind)
}

func TestScanEndpointRejectsBrokenJSON(t *testing.T) {
	s := setupTestServer(t)

	resp := s.request(t, http.MethodPost, "/api/scan", "", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["message"])

	stats, err := store.ReadingStats(context.Background(), s.db)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReadings)
}

func TestScanEndpointStoresEmptyContent(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing content", map[string]string{"type": "qr"}},
		{"blank content", map[string]string{"type": "qr", "content": "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.request(t, http.MethodPost, "/api/scan", "", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out map[string]any
			decode(t, resp, &out)
			assert.Equal(t, true, out["success"])
		})
	}

	stats, err := store.ReadingStats(context.Background(), s.db)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReadings)
}

func TestScanUnknownKind(t *testing.T) {
	s := setupTestServer(t)

	resp := s.request(t, http.MethodPost, "/api/scan", "", map[string]string{"type": "laser", "content": "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, "Escaneo unknown procesado correctamente.", out["message"])
}

func TestSubmitNFC(t *testing.T) {
	s := setupTestServer(t)

	resp := s.request(t, http.MethodPost, "/api/submit-nfc", "", map[string]any{
		"device_info": map[string]string{"model": "Moto"},
		"nfc_data":    map[string]string{"uid": "04:A2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		ReadingID int64  `json:"reading_id"`
	}
	decode(t, resp, &out)
	assert.True(t, out.Success)
	assert.Equal(t, "Lectura NFC guardada correctamente", out.Message)
	assert.NotZero(t, out.ReadingID)

	resp = s.request(t, http.MethodPost, "/api/submit-nfc", "", "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadingsAndStats(t *testing.T) {
	s := setupTestServer(t)

	resp := s.request(t, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Success bool            `json:"success"`
		Stats   model.ScanStats `json:"stats"`
	}
	decode(t, resp, &stats)
	assert.True(t, stats.Success)
	assert.Equal(t, model.NoReadings, stats.Stats.LastReadingTime)

	resp = s.request(t, http.MethodGet, "/api/readings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string]any
	decode(t, resp, &empty)
	assert.Equal(t, []any{}, empty["readings"])

	for _, content := range []string{"a", "b", "c", "d"} {
		resp := s.request(t, http.MethodPost, "/api/scan", "", map[string]string{"type": "qr", "content": content})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = s.request(t, http.MethodGet, "/api/readings?limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Readings []model.ScanReading `json:"readings"`
		Total    int                 `json:"total"`
	}
	decode(t, resp, &out)
	assert.Equal(t, 2, out.Total)
	assert.Len(t, out.Readings, 2)

	// Clamped to the configured maximum.
	resp = s.request(t, http.MethodGet, "/api/readings?limit=500", "", nil)
	decode(t, resp, &out)
	assert.Equal(t, 3, out.Total)

	resp = s.request(t, http.MethodGet, "/api/stats", "", nil)
	decode(t, resp, &stats)
	assert.Equal(t, 4, stats.Stats.TotalReadings)
	assert.Equal(t, 1, stats.Stats.UniqueDevices)
}

func TestLoginEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.createUser(t, "11111111", "Ana", model.RoleAdmin, true)
	s.createUser(t, "22222222", "Iván", model.RoleUser, false)

	resp := s.request(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "arojas", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "irojas", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "arojas"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	token := s.login(t, "arojas")
	claims, err := auth.ValidateToken(testJWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestBearerAuth(t *testing.T) {
	s := setupTestServer(t)
	user := s.createUser(t, "11111111", "Ana", model.RoleUser, true)

	resp := s.request(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.request(t, http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := s.login(t, user.Username)
	resp = s.request(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	decode(t, resp, &me)
	assert.Equal(t, user.Username, me["username"])
	assert.NotContains(t, me, "password")

	for _, path := range []string{"/api/dashboard", "/api/reports/locations", "/api/reports/stores"} {
		resp = s.request(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "GET %s", path)
	}

	resp = s.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.request(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBearerAuthRejectsDeactivatedUser(t *testing.T) {
	s := setupTestServer(t)
	user := s.createUser(t, "11111111", "Ana", model.RoleAdmin, true)
	token := s.login(t, user.Username)

	_, err := s.db.Exec(`UPDATE usuarios SET activo = 0 WHERE usuario_id = ?`, user.ID)
	require.NoError(t, err)

	resp := s.request(t, http.MethodGet, "/api/reports/stores", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReportEndpoints(t *testing.T) {
	s := setupTestServer(t)
	admin := s.createUser(t, "11111111", "Ana", model.RoleAdmin, true)
	token := s.login(t, admin.Username)
	ctx := context.Background()

	product, err := store.CreateProduct(ctx, s.db, model.ProductInput{
		Name: "Toner", Stock: 5, Location: "Estante B", UnitValue: decimal.NewFromInt(2000), Active: true,
	})
	require.NoError(t, err)
	shop, err := store.CreateStore(ctx, s.db, "Tienda Sur", "")
	require.NoError(t, err)
	_, err = store.ShipToStore(ctx, s.db,
		auth.Session{UserID: admin.ID, Username: admin.Username, Role: admin.Role}, product.ID, shop.ID, 2)
	require.NoError(t, err)

	resp := s.request(t, http.MethodGet, "/api/reports/locations", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var locations locationsResponse
	decode(t, resp, &locations)
	assert.Empty(t, locations.Warning)
	require.Len(t, locations.Locations, 2)
	assert.Equal(t, 3, locations.Summary[model.LocationWarehouse])
	assert.Equal(t, 2, locations.Summary[model.LocationStore])
	assert.Equal(t, 0, locations.Summary[model.LocationAssigned])

	resp = s.request(t, http.MethodGet, "/api/reports/stores", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stores struct {
		Stores []model.StoreStockGroup `json:"stores"`
	}
	decode(t, resp, &stores)
	require.Len(t, stores.Stores, 1)
	assert.Equal(t, "Tienda Sur", stores.Stores[0].Store.Name)
	assert.Equal(t, 2, stores.Stores[0].Products[0].Stock)

	resp = s.request(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash map[string]any
	decode(t, resp, &dash)
	assert.EqualValues(t, 3, dash["warehouse_units"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidArgument, http.StatusBadRequest},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrConflict, http.StatusConflict},
		{model.ErrAlreadyProcessed, http.StatusConflict},
		{model.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{model.ErrPersistence, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
