package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) Send(ctx context.Context, pattern string, payload interface{}, out interface{}) error {
	args := m.Called(pattern, payload)
	if res, ok := args.Get(0).(*contracts.ValidateTokenResult); ok && res != nil {
		*(out.(*contracts.ValidateTokenResult)) = *res
	}
	return args.Error(1)
}

func newRelayEngine(identity *mockIdentity, handlers ...gin.HandlerFunc) *gin.Engine {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{AuthRelay(identity)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "ok", gin.H{
			"userId":   c.GetUint(KeyUserID),
			"tenantId": c.GetString(KeyTenantID),
			"role":     c.GetString(KeyRole),
		})
	})
	r.GET("/admin/thing", chain...)
	return r
}

func TestAuthRelayAttachesIdentity(t *testing.T) {
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{AccessToken: "access-1"}).
		Return(&contracts.ValidateTokenResult{Identity: contracts.Identity{UserID: 9, TenantID: "t1", Role: models.RoleManager}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	w := httptest.NewRecorder()
	newRelayEngine(identity).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "t1", body.Data["tenantId"])
	assert.Equal(t, float64(9), body.Data["userId"])
	assert.Empty(t, w.Header().Get(HeaderNewAccessToken))
	identity.AssertExpectations(t)
}

func TestAuthRelaySurfacesNewAccessToken(t *testing.T) {
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{AccessToken: "old", RefreshToken: "refresh-1"}).
		Return(&contracts.ValidateTokenResult{
			Identity:       contracts.Identity{UserID: 9, TenantID: "t1", Role: models.RoleOwner},
			NewAccessToken: "fresh",
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer old")
	req.Header.Set(HeaderRefreshToken, "refresh-1")
	w := httptest.NewRecorder()
	newRelayEngine(identity).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fresh", w.Header().Get(HeaderNewAccessToken))
}

func TestAuthRelayRejects(t *testing.T) {
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, mock.Anything).
		Return(nil, utils.Unauthorized("invalid or expired session"))

	reached := false
	engine := newRelayEngine(identity, func(c *gin.Context) { reached = true })

	for _, header := range []string{"", "Basic abc", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		var body utils.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, utils.CodeUnauthorized, body.Code)
	}
	assert.False(t, reached)
	identity.AssertNumberOfCalls(t, "Send", 1)
}

func TestAuthRelayIdentityDown(t *testing.T) {
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, mock.Anything).
		Return(nil, utils.ServiceUnavailable("identity service is unavailable", context.DeadlineExceeded))

	req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	newRelayEngine(identity).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequireRoles(t *testing.T) {
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{AccessToken: "staff"}).
		Return(&contracts.ValidateTokenResult{Identity: contracts.Identity{UserID: 1, TenantID: "t1", Role: models.RoleStaff}}, nil)
	identity.On("Send", contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{AccessToken: "owner"}).
		Return(&contracts.ValidateTokenResult{Identity: contracts.Identity{UserID: 2, TenantID: "t1", Role: models.RoleOwner}}, nil)

	engine := newRelayEngine(identity, RequireRoles(models.RoleOwner, models.RoleManager))

	for token, want := range map[string]int{"staff": http.StatusForbidden, "owner": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}

func TestWebSocketAuthRelayReadsQuery(t *testing.T) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	identity := &mockIdentity{}
	identity.On("Send", contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{AccessToken: "ws-token"}).
		Return(&contracts.ValidateTokenResult{Identity: contracts.Identity{UserID: 3, TenantID: "t1", Role: models.RoleStaff}}, nil)

	r := gin.New()
	r.GET("/ws/events", WebSocketAuthRelay(identity), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/events?token=ws-token", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Cleanup())
	assert.Zero(t, rl.Size())
}

func TestRateLimitMiddleware(t *testing.T) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, time.Minute)
	r := gin.New()
	r.GET("/auth/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"https://app.example.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, utils.CodeInternal, body.Code)
}
