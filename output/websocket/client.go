package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// client is one subscriber connection: the underlying socket, its event
// filter, and a bounded outbound queue drained by a single writer goroutine.
type client struct {
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time

	subMu sync.Mutex
	sub   subscription

	// send is drained by the writer goroutine; enqueue never blocks on it.
	send chan []byte
	done chan struct{}

	lastSeen  atomic.Value // time.Time
	closed    atomic.Bool
	closeOnce sync.Once

	messagesSent int64
	bytesSent    int64
}

func newClient(id string, conn *websocket.Conn, queueSize int) *client {
	c := &client{
		id:          id,
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		send:        make(chan []byte, queueSize),
		done:        make(chan struct{}),
	}
	c.touch()
	return c
}

// touch records inbound traffic for the liveness sweep. Heartbeats, pongs
// and any other client message all count as signs of life.
func (c *client) touch() {
	c.lastSeen.Store(time.Now())
}

func (c *client) lastSeenAt() time.Time {
	t, _ := c.lastSeen.Load().(time.Time)
	return t
}

// enqueue hands a message to the writer goroutine without blocking. A false
// return means the queue is full or the connection is closing; the caller
// decides whether that evicts the connection.
func (c *client) enqueue(data []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// allows reports whether the connection's filter passes the given capsule ID.
func (c *client) allows(capsuleID string) bool {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.sub.matches(capsuleID)
}

func (c *client) subscribe(capsuleIDs []string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.sub.apply(capsuleIDs)
}

func (c *client) unsubscribe(capsuleIDs []string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.sub.remove(capsuleIDs)
}

func (c *client) subscriptionInfo() (all bool, ids []string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.sub.snapshot()
}

// write sends one frame under a deadline. Only the writer goroutine calls
// this; gorilla connections do not tolerate concurrent writers.
func (c *client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}
