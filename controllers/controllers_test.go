package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/middlewares"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Send(ctx context.Context, pattern string, payload interface{}, out interface{}) error {
	args := m.Called(pattern, payload)
	if res := args.Get(0); res != nil && out != nil {
		raw, err := json.Marshal(res)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}
	return args.Error(1)
}

type recordingConn struct {
	mu       sync.Mutex
	messages []kds.Message
}

func (rc *recordingConn) WriteMessage(_ int, data []byte) error {
	var msg kds.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	rc.mu.Lock()
	rc.messages = append(rc.messages, msg)
	rc.mu.Unlock()
	return nil
}

func (rc *recordingConn) SetWriteDeadline(time.Time) error { return nil }
func (rc *recordingConn) Close() error                     { return nil }

func newEngine() *gin.Engine {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asTenant stands in for the auth relay.
func asTenant(tenantID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.KeyTenantID, tenantID)
		c.Set(middlewares.KeyUserID, uint(1))
		c.Set(middlewares.KeyRole, models.RoleManager)
		c.Next()
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestExportRejectsUnknownFormatBeforeAnyCall(t *testing.T) {
	tables := &mockClient{}
	qc := NewQRController(tables, qrexport.NewRenderer(256), kds.NewHub())
	r := newEngine()
	r.GET("/admin/qr/export", asTenant("t1"), qc.Export)

	for _, format := range []string{"", "gif", "PDFX", "png;rm"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/qr/export?format="+url.QueryEscape(format), nil))

		assert.Equal(t, http.StatusBadRequest, w.Code, format)
		assert.Equal(t, utils.CodeValidationFailed, decodeError(t, w).Code)
	}
	tables.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestExportRendersSelection(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdQRList, mock.MatchedBy(func(req *contracts.QRSelection) bool {
		return req.TenantID == "t1" && len(req.TableIDs) == 2 && req.TableIDs[0] == 1 && req.TableIDs[1] == 2
	})).Return([]contracts.QRCode{
		{TableID: 1, TableName: "A1", TokenVersion: 2, ScanURL: "https://api.example.test/qr/scan/a"},
		{TableID: 2, TableName: "A2", TokenVersion: 1, ScanURL: "https://api.example.test/qr/scan/b"},
	}, nil)

	qc := NewQRController(tables, qrexport.NewRenderer(256), kds.NewHub())
	r := newEngine()
	r.GET("/admin/qr/export", asTenant("t1"), qc.Export)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/qr/export?format=pdf&ids=1,2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tables-qr.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	tables.AssertExpectations(t)
}

func TestDownloadRejectsMultiFileFormats(t *testing.T) {
	tables := &mockClient{}
	qc := NewQRController(tables, qrexport.NewRenderer(256), kds.NewHub())
	r := newEngine()
	r.GET("/admin/tables/:table_id/qr/download", asTenant("t1"), qc.Download)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tables/1/qr/download?format=zip", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	tables.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRegenerateBroadcastsToTenant(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdQRRegenerate, mock.MatchedBy(func(req *contracts.GenerateQRRequest) bool {
		return req.TenantID == "t1" && req.TableID == 7
	})).Return(contracts.QRCode{TenantID: "t1", TableID: 7, TokenVersion: 4}, nil)

	hub := kds.NewHub()
	own, other := &recordingConn{}, &recordingConn{}
	hub.Register(own, "t1", models.RoleManager)
	hub.Register(other, "t2", models.RoleManager)

	r := newEngine()
	r.POST("/admin/tables/:table_id/qr/regenerate", asTenant("t1"), NewQRController(tables, qrexport.NewRenderer(256), hub).Regenerate)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/tables/7/qr/regenerate", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, own.messages, 1)
	assert.Equal(t, kds.EventQRRegenerated, own.messages[0].Event)
	assert.Empty(t, other.messages)
}

func TestCreateTableUsesCallerTenant(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdTablesCreate, mock.MatchedBy(func(req *contracts.CreateTableRequest) bool {
		return req.TenantID == "t1" && req.Name == "A1"
	})).Return(models.Table{ID: 3, TenantID: "t1", Name: "A1", Capacity: 4, IsActive: true, TokenVersion: 1}, nil)

	hub := kds.NewHub()
	conn := &recordingConn{}
	hub.Register(conn, "t1", models.RoleOwner)

	r := newEngine()
	r.POST("/admin/tables", asTenant("t1"), NewTableController(tables, hub).CreateTable)
	var logs bytes.Buffer
	utils.InfoLogger.SetOutput(&logs)

	body := `{"tenantId":"someone-else","name":" A1 ","capacity":4}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/tables", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, conn.messages, 1)
	assert.Equal(t, kds.EventTableCreate, conn.messages[0].Event)
	// the tables service logs the creation
	assert.Empty(t, logs.String())
	tables.AssertExpectations(t)
}

func TestBulkRegenerateBroadcastsEachTable(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdQRBulkRegenerate, mock.MatchedBy(func(req *contracts.QRSelection) bool {
		return req.TenantID == "t1"
	})).Return(contracts.BulkQRResult{
		Succeeded: 2,
		Results:   []contracts.QRCode{{TenantID: "t1", TableID: 1, TokenVersion: 2}, {TenantID: "t1", TableID: 2, TokenVersion: 5}},
	}, nil)

	hub := kds.NewHub()
	conn := &recordingConn{}
	hub.Register(conn, "t1", models.RoleOwner)

	r := newEngine()
	r.POST("/admin/qr/bulk-regenerate", asTenant("t1"), NewQRController(tables, qrexport.NewRenderer(256), hub).BulkRegenerate)
	var logs bytes.Buffer
	utils.InfoLogger.SetOutput(&logs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/qr/bulk-regenerate", strings.NewReader(`{"tableIds":[1,2]}`)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, conn.messages, 2)
	assert.Empty(t, logs.String())
}

func TestCreateTableInvalidBodySkipsService(t *testing.T) {
	tables := &mockClient{}
	r := newEngine()
	r.POST("/admin/tables", asTenant("t1"), NewTableController(tables, kds.NewHub()).CreateTable)

	for _, body := range []string{`{"name":`, `{"name":"","capacity":0}`} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/tables", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	tables.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestServiceDownSurfacesAs503(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdTablesList, mock.Anything).
		Return(nil, utils.ServiceUnavailable("tables service is unavailable", context.DeadlineExceeded))

	r := newEngine()
	r.GET("/admin/tables", asTenant("t1"), NewTableController(tables, kds.NewHub()).ListTables)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tables", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, utils.CodeServiceUnavailable, decodeError(t, w).Code)
}

func acceptedScan() contracts.ScanResult {
	return contracts.ScanResult{
		State:        contracts.ScanAccepted,
		TenantID:     "t1",
		TableID:      7,
		TableName:    "A7",
		RedirectPath: "https://app.example.test/menu?tableId=7&tenantId=t1",
		Trail:        []string{contracts.ScanReceived, contracts.ScanDecoded, contracts.ScanVersionChecked, contracts.ScanAccepted},
	}
}

func staleScan() contracts.ScanResult {
	return contracts.ScanResult{
		State:  contracts.ScanRejected,
		Reason: contracts.ReasonStaleVersion,
		Trail:  []string{contracts.ScanReceived, contracts.ScanDecoded, contracts.ScanVersionChecked, contracts.ScanRejected},
	}
}

func scanEngine(tables *mockClient, release bool) *gin.Engine {
	sc := NewScanController(tables, release, "https://app.example.test/scan-error")
	r := newEngine()
	r.GET("/qr/scan/:token", sc.Scan)
	r.GET("/qr/scan", sc.Scan)
	return r
}

func TestScanReleaseRedirects(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdQRValidateScan, &contracts.ValidateScanRequest{Token: "good"}).Return(acceptedScan(), nil)
	tables.On("Send", contracts.CmdQRValidateScan, &contracts.ValidateScanRequest{Token: "old"}).Return(staleScan(), nil)
	r := scanEngine(tables, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr/scan/good", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, acceptedScan().RedirectPath, w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr/scan?token=old", nil))
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/scan-error", location.Path)
	assert.Equal(t, "40002", location.Query().Get("reason"))
	assert.NotEmpty(t, location.Query().Get("message"))
}

func TestScanDebugEchoesJSON(t *testing.T) {
	tables := &mockClient{}
	tables.On("Send", contracts.CmdQRValidateScan, &contracts.ValidateScanRequest{Token: "good"}).Return(acceptedScan(), nil)
	tables.On("Send", contracts.CmdQRValidateScan, &contracts.ValidateScanRequest{Token: "old"}).Return(staleScan(), nil)
	r := scanEngine(tables, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr/scan/good", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "t1", body.Data["tenantId"])
	assert.Equal(t, float64(7), body.Data["tableId"])
	assert.Equal(t, acceptedScan().RedirectPath, body.Data["redirect"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr/scan/old", nil))
	assert.Equal(t, http.StatusGone, w.Code)
	errBody := decodeError(t, w)
	assert.Equal(t, utils.CodeStaleOrInvalidVersion, errBody.Code)
	assert.NotContains(t, errBody.Path, "old")
}

func TestScanWithoutTokenSkipsService(t *testing.T) {
	tables := &mockClient{}
	r := scanEngine(tables, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/qr/scan", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	tables.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSanitizeMessage(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", sanitizeMessage(`<script>alert(1)</script>`))
	assert.Equal(t, "a b", sanitizeMessage("a\nb"))
	assert.Len(t, []rune(sanitizeMessage(strings.Repeat("x", 500))), maxScanMessage)
}

func TestPublicMenuTakesTenantFromPath(t *testing.T) {
	catalog := &mockClient{}
	catalog.On("Send", contracts.CmdMenusPublic, &contracts.TenantScope{TenantID: "t9"}).
		Return(contracts.PublicMenu{TenantID: "t9"}, nil)

	r := newEngine()
	r.GET("/public/tenants/:tenant_id/menu", NewMenuController(catalog).PublicMenu)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/tenants/t9/menu", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	catalog.AssertExpectations(t)
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("ids", "1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)

	ids, err = parseIDList("ids", "")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDList("ids", "1,x")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = parseIDList("ids", "0")
	assert.ErrorIs(t, err, utils.ErrValidation)
}
