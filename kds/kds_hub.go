package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-platform/utils"
)

// Event types
const (
	EventTableCreate   = "table_create"
	EventTableUpdate   = "table_update"
	EventTableDelete   = "table_delete"
	EventFloorUpdate   = "floor_update"
	EventQRRegenerated = "qr_regenerated"
)

const writeWait = 5 * time.Second

type Message struct {
	Event    string      `json:"event"`
	TenantID string      `json:"tenantId"`
	Data     interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client serializes writes to one connection; a websocket allows a single
// concurrent writer.
type client struct {
	conn     Conn
	tenantID string
	role     string
	writeMu  sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub holds the dashboard connections of one gateway instance. Messages only
// reach connections of the tenant they belong to. The hub lock only guards
// the registry, never a network write.
type Hub struct {
	clients map[Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]*client)}
}

func (h *Hub) Register(conn Conn, tenantID, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = &client{conn: conn, tenantID: tenantID, role: role}
}

// Unregister drops the connection and closes it.
func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()

	if ok {
		conn.Close()
	}
}

func (h *Hub) Count(tenantID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	n := 0
	for _, c := range h.clients {
		if c.tenantID == tenantID {
			n++
		}
	}
	return n
}

func (h *Hub) Broadcast(tenantID, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, TenantID: tenantID, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s message: %v", event, err)
		return
	}

	h.mutex.Lock()
	var targets []*client
	for _, c := range h.clients {
		if c.tenantID == tenantID {
			targets = append(targets, c)
		}
	}
	h.mutex.Unlock()

	var failed []Conn
	sent := 0
	for _, c := range targets {
		if err := c.write(payload); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to client with role %s: %v", event, c.role, err)
			failed = append(failed, c.conn)
			continue
		}
		sent++
	}

	for _, conn := range failed {
		h.Unregister(conn)
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients of tenant %s", event, sent, tenantID)
}

// Close disconnects every client. Used at shutdown.
func (h *Hub) Close() {
	h.mutex.Lock()
	conns := make([]Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[Conn]*client)
	h.mutex.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
