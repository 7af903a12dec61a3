package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-platform/utils"
)

const HeaderRequestID = "X-Request-ID"

// LoggerMiddleware tags the request with an id and logs it once it is done.
// Query strings are left out because scan and websocket URLs carry tokens.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Next()

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if tenant, ok := c.Get(KeyTenantID); ok {
			entry = entry.WithField("tenant_id", tenant)
		}
		route := c.FullPath()
		if route == "" {
			route = "(no route)"
		}
		entry.Info(route)
	}
}

// Recovery turns a panic into an Internal error response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("panic recovered: %v", rec)
				utils.RespondError(c, utils.ErrInternal)
			}
		}()
		c.Next()
	}
}
