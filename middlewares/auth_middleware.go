package middlewares

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// Context keys set by the auth relay.
const (
	KeyUserID   = "user_id"
	KeyTenantID = "tenant_id"
	KeyRole     = "role"
	KeyEmail    = "email"
)

const (
	HeaderRefreshToken   = "X-Refresh-Token"
	HeaderNewAccessToken = "X-New-Access-Token"
)

// AuthRelay asks the identity service who the caller is and attaches the
// answer to the request. Nothing behind it runs for an unauthenticated caller.
func AuthRelay(identity rpc.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.RespondError(c, utils.Unauthorized("authorization header missing"))
			return
		}
		relay(c, identity, token, c.GetHeader(HeaderRefreshToken))
	}
}

// WebSocketAuthRelay is AuthRelay for websocket upgrades, where browsers
// cannot set headers: the access token comes from the token query parameter.
func WebSocketAuthRelay(identity rpc.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondError(c, utils.Unauthorized("token query parameter missing"))
			return
		}
		relay(c, identity, token, "")
	}
}

func relay(c *gin.Context, identity rpc.Client, accessToken, refreshToken string) {
	var result contracts.ValidateTokenResult
	err := identity.Send(c.Request.Context(), contracts.CmdAuthValidateToken, contracts.ValidateTokenRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, &result)
	if err != nil {
		if errors.Is(err, utils.ErrServiceUnavailable) {
			utils.RespondError(c, err)
			return
		}
		utils.InfoLogger.Debugf("Token rejected for %s: %v", c.Request.URL.Path, err)
		utils.RespondError(c, utils.Unauthorized("invalid or expired token"))
		return
	}
	if result.Identity.UserID == 0 || result.Identity.TenantID == "" {
		utils.RespondError(c, utils.Unauthorized("invalid or expired token"))
		return
	}

	if result.NewAccessToken != "" {
		c.Header(HeaderNewAccessToken, result.NewAccessToken)
	}

	c.Set(KeyUserID, result.Identity.UserID)
	c.Set(KeyTenantID, result.Identity.TenantID)
	c.Set(KeyRole, result.Identity.Role)
	c.Set(KeyEmail, result.Identity.Email)
	c.Next()
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
