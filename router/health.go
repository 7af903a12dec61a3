package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
)

// Health backs the liveness and readiness probes. Readiness is switched off
// at shutdown so load balancers stop routing before the server drains.
type Health struct {
	ready atomic.Bool
}

func NewHealth() *Health {
	h := &Health{}
	h.ready.Store(true)
	return h
}

func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) Ready() bool {
	return h.ready.Load()
}

func (h *Health) Register(r gin.IRoutes) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if !h.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
