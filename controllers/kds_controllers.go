package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/middlewares"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// EventsController streams table, floor and QR events to dashboards.
type EventsController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

func NewEventsController(hub *kds.Hub, origins []string) *EventsController {
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &EventsController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || allowAll || allowed[origin]
			},
		},
	}
}

// Events -> endpoint WebSocket, authenticated by the relay before the upgrade
func (ec *EventsController) Events(c *gin.Context) {
	tenantID, _ := caller(c)
	role := c.GetString(middlewares.KeyRole)
	if tenantID == "" {
		utils.RespondError(c, utils.ErrUnauthorized)
		return
	}

	ws, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.InfoLogger.Debugf("websocket upgrade failed: %v", err)
		return
	}

	ec.Hub.Register(ws, tenantID, role)
	utils.InfoLogger.Printf("Dashboard connected: tenant=%s role=%s", tenantID, role)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	ec.Hub.Unregister(ws)
}
