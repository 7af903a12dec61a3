package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/config"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/router"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := &config.Config{Mode: config.ModeDebug, Port: "0"}
	cfg.JWT.Secret = "integration-jwt-secret"
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = time.Hour
	cfg.JWT.RefreshThreshold = 2 * time.Minute
	cfg.QR.Secret = "integration-qr-secret"
	cfg.QR.PublicBaseURL = "https://api.example.test"
	cfg.QR.CustomerAppURL = "https://app.example.test"
	cfg.QR.ScanErrorURL = "https://app.example.test/scan-error"
	cfg.QR.ImageSize = 256
	cfg.Services.IdentityAPIKey = "identity-key"
	cfg.Services.TablesAPIKey = "tables-key"
	cfg.Services.CatalogAPIKey = "catalog-key"
	cfg.Services.Timeout = 5 * time.Second
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	cfg.RateLimit.TTL = time.Minute
	cfg.CORSOrigins = []string{"https://app.example.test"}
	return cfg
}

// setupStandalone builds the whole platform in one process on an in-memory database.
func setupStandalone(t *testing.T) (http.Handler, *router.Health) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := testConfig()
	require.NoError(t, cfg.Validate(config.ServiceStandalone))

	health := router.NewHealth()
	app := &application{}
	require.NoError(t, assemble(app, cfg, config.ServiceStandalone, db, health))
	t.Cleanup(func() {
		app.shutdown()
		sqlDB.Close()
	})
	return app.handler, health
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		envelope := struct {
			Data interface{} `json:"data"`
		}{Data: out}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	}
	return w
}

func login(t *testing.T, h http.Handler, email string) contracts.TokenPair {
	t.Helper()

	var pair contracts.TokenPair
	w := call(t, h, http.MethodPost, "/auth/login", "", contracts.LoginRequest{Email: email, Password: "correct-horse"}, &pair)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, pair.AccessToken)
	return pair
}

// signupOwner registers a new restaurant and returns the owner's access token and tenant.
func signupOwner(t *testing.T, h http.Handler, email string) (string, string) {
	t.Helper()

	w := call(t, h, http.MethodPost, "/auth/register", "", contracts.RegisterRequest{
		Name:     "Owner",
		Email:    email,
		Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	pair := login(t, h, email)
	require.Equal(t, models.RoleOwner, pair.User.Role)
	return pair.AccessToken, pair.User.TenantID
}

// addUser lets an owner create a manager or staff account, then logs it in.
func addUser(t *testing.T, h http.Handler, ownerToken, email, role string) string {
	t.Helper()

	w := call(t, h, http.MethodPost, "/admin/users", ownerToken, contracts.CreateUserRequest{
		Name:     "Test " + role,
		Email:    email,
		Password: "correct-horse",
		Role:     role,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return login(t, h, email).AccessToken
}

// TestEndToEndIntegration menguji flow utama:
// 0. Register owner & login -> token
// 1. Create table
// 2. Generate + regenerate QR
// 3. Scan code lama => ditolak, scan code baru => diterima
// 4. Export QR
// 5. Staff tidak boleh mengubah meja
func TestEndToEndIntegration(t *testing.T) {
	h, _ := setupStandalone(t)
	owner, tenantID := signupOwner(t, h, "owner@example.test")

	var table models.Table
	w := call(t, h, http.MethodPost, "/admin/tables", owner, map[string]interface{}{"name": "A1", "capacity": 4}, &table)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, tenantID, table.TenantID)

	tablePath := "/admin/tables/" + strconv.FormatUint(uint64(table.ID), 10)

	var first, second contracts.QRCode
	w = call(t, h, http.MethodPost, tablePath+"/qr", owner, nil, &first)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = call(t, h, http.MethodPost, tablePath+"/qr/regenerate", owner, nil, &second)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, first.TokenVersion+1, second.TokenVersion)

	var current contracts.QRCode
	w = call(t, h, http.MethodGet, tablePath+"/qr", owner, nil, &current)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, second.TokenVersion, current.TokenVersion)

	w = call(t, h, http.MethodGet, "/qr/scan/"+first.Token, "", nil, nil)
	assert.Equal(t, http.StatusGone, w.Code)

	var scan map[string]interface{}
	w = call(t, h, http.MethodGet, "/qr/scan?token="+second.Token, "", nil, &scan)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, tenantID, scan["tenantId"])
	assert.Equal(t, float64(table.ID), scan["tableId"])

	w = call(t, h, http.MethodGet, "/admin/qr/export?format=zip", owner, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	w = call(t, h, http.MethodGet, "/admin/qr/export?format=bmp", owner, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	staff := addUser(t, h, owner, "staff@example.test", models.RoleStaff)
	w = call(t, h, http.MethodPost, "/admin/tables", staff, map[string]interface{}{"name": "A2", "capacity": 2}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var tables []models.Table
	w = call(t, h, http.MethodGet, "/admin/tables", staff, nil, &tables)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, tables, 1)
}

func TestPublicMenuAfterScan(t *testing.T) {
	h, _ := setupStandalone(t)
	owner, tenantID := signupOwner(t, h, "owner@example.test")

	var category models.MenuCategory
	w := call(t, h, http.MethodPost, "/admin/categories", owner, map[string]interface{}{"name": "Drinks"}, &category)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, h, http.MethodPost, "/admin/menus", owner, map[string]interface{}{
		"categoryId": category.ID,
		"name":       "Iced Tea",
		"price":      12000,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var menu contracts.PublicMenu
	w = call(t, h, http.MethodGet, "/public/tenants/"+tenantID+"/menu", "", nil, &menu)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, menu.Categories, 1)
	assert.Equal(t, "Iced Tea", menu.Categories[0].Items[0].Name)

	w = call(t, h, http.MethodGet, "/public/tenants/t2/menu", "", nil, &menu)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterCannotJoinExistingTenant(t *testing.T) {
	h, _ := setupStandalone(t)
	owner, tenantID := signupOwner(t, h, "owner@example.test")

	var table models.Table
	w := call(t, h, http.MethodPost, "/admin/tables", owner, map[string]interface{}{"name": "A1", "capacity": 4}, &table)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// tenantId and role in the body are ignored
	w = call(t, h, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"tenantId": tenantID,
		"role":     models.RoleOwner,
		"name":     "Mallory",
		"email":    "mallory@example.test",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	intruder := login(t, h, "mallory@example.test")
	assert.NotEqual(t, tenantID, intruder.User.TenantID)

	tablePath := "/admin/tables/" + strconv.FormatUint(uint64(table.ID), 10)
	w = call(t, h, http.MethodDelete, tablePath, intruder.AccessToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var tables []models.Table
	w = call(t, h, http.MethodGet, "/admin/tables", owner, nil, &tables)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, tables, 1)
}

func TestOnlyOwnerCreatesUsers(t *testing.T) {
	h, _ := setupStandalone(t)
	owner, tenantID := signupOwner(t, h, "owner@example.test")
	manager := addUser(t, h, owner, "manager@example.test", models.RoleManager)

	w := call(t, h, http.MethodPost, "/admin/users", manager, contracts.CreateUserRequest{
		Name: "Staff", Email: "staff@example.test", Password: "correct-horse", Role: models.RoleStaff,
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, h, http.MethodPost, "/admin/users", owner, contracts.CreateUserRequest{
		Name: "Co-owner", Email: "co@example.test", Password: "correct-horse", Role: models.RoleOwner,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var user models.User
	w = call(t, h, http.MethodPost, "/admin/users", owner, contracts.CreateUserRequest{
		TenantID: "someone-else", Name: "Staff", Email: "staff@example.test", Password: "correct-horse", Role: models.RoleStaff,
	}, &user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, tenantID, user.TenantID)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	h, _ := setupStandalone(t)

	w := call(t, h, http.MethodGet, "/admin/tables", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, h, http.MethodGet, "/admin/tables", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReadinessFlipsAtShutdown(t *testing.T) {
	h, health := setupStandalone(t)

	w := call(t, h, http.MethodGet, "/readyz", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	health.SetReady(false)
	w = call(t, h, http.MethodGet, "/readyz", "", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = call(t, h, http.MethodGet, "/livez", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
