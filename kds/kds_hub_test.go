package kds

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/utils"
)

type fakeConn struct {
	mu          sync.Mutex
	messages    [][]byte
	fail        bool
	closed      bool
	deadlineErr error
	// writing is signalled and release awaited before a write completes
	writing chan struct{}
	release chan struct{}
}

func (fc *fakeConn) WriteMessage(_ int, data []byte) error {
	if fc.release != nil {
		fc.writing <- struct{}{}
		<-fc.release
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.fail {
		return errors.New("broken pipe")
	}
	fc.messages = append(fc.messages, data)
	return nil
}

func (fc *fakeConn) SetWriteDeadline(time.Time) error { return fc.deadlineErr }

func (fc *fakeConn) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.closed = true
	return nil
}

func TestBroadcastReachesOnlyTenant(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Register(a, "t1", "manager")
	hub.Register(b, "t2", "manager")

	hub.Broadcast("t1", EventQRRegenerated, map[string]uint{"tableId": 7})

	require.Len(t, a.messages, 1)
	assert.Empty(t, b.messages)

	var msg Message
	require.NoError(t, json.Unmarshal(a.messages[0], &msg))
	assert.Equal(t, EventQRRegenerated, msg.Event)
	assert.Equal(t, "t1", msg.TenantID)
}

func TestBroadcastDropsBrokenConnections(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()
	broken := &fakeConn{fail: true}
	hub.Register(broken, "t1", "staff")
	hub.Register(&fakeConn{}, "t1", "owner")

	hub.Broadcast("t1", EventTableUpdate, nil)

	assert.True(t, broken.closed)
	assert.Equal(t, 1, hub.Count("t1"))
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(conn, "t1", "owner")

	hub.Close()
	assert.True(t, conn.closed)
	assert.Zero(t, hub.Count("t1"))
}

func TestBroadcastDropsConnectionWhenDeadlineFails(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()
	conn := &fakeConn{deadlineErr: errors.New("use of closed network connection")}
	hub.Register(conn, "t1", "manager")

	hub.Broadcast("t1", EventTableCreate, nil)

	assert.Empty(t, conn.messages)
	assert.True(t, conn.closed)
	assert.Zero(t, hub.Count("t1"))
}

func TestSlowClientDoesNotBlockHub(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()
	slow := &fakeConn{writing: make(chan struct{}), release: make(chan struct{})}
	fast := &fakeConn{}
	hub.Register(slow, "t1", "manager")
	hub.Register(fast, "t2", "manager")

	done := make(chan struct{})
	go func() {
		hub.Broadcast("t1", EventTableUpdate, nil)
		close(done)
	}()
	<-slow.writing

	// the stuck write to t1 holds no hub-wide lock
	hub.Broadcast("t2", EventTableUpdate, nil)
	hub.Register(&fakeConn{}, "t1", "staff")
	assert.Equal(t, 2, hub.Count("t1"))
	require.Len(t, fast.messages, 1)

	close(slow.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast to slow client never finished")
	}
	assert.Len(t, slow.messages, 1)
}
