package transport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"example.com/drawguess/internal/protocol"
)

const (
	sendQueue = 256
	writeWait = 10 * time.Second

	// a full canvas snapshot is the largest frame
	maxFrameBytes = 8 << 20
)

// Heartbeat governs liveness. Both ends ping every Ping; a connection that
// has delivered no frame or pong for Timeout is dropped.
type Heartbeat struct {
	Ping    time.Duration
	Timeout time.Duration
}

func DefaultHeartbeat() Heartbeat {
	return Heartbeat{Ping: 25 * time.Second, Timeout: 60 * time.Second}
}

func (hb Heartbeat) orDefault() Heartbeat {
	if hb.Ping <= 0 || hb.Timeout <= 0 {
		return DefaultHeartbeat()
	}
	return hb
}

// Limits caps how fast one connection may send chat and draw frames.
// Frames over the limit are dropped.
type Limits struct {
	ChatPerSecond float64
	ChatBurst     int
	DrawPerSecond float64
	DrawBurst     int
}

func DefaultLimits() Limits {
	return Limits{ChatPerSecond: 5, ChatBurst: 10, DrawPerSecond: 120, DrawBurst: 240}
}

type limiter struct {
	chat *rate.Limiter
	draw *rate.Limiter
}

func newLimiter(l Limits) *limiter {
	return &limiter{
		chat: rate.NewLimiter(rate.Limit(l.ChatPerSecond), l.ChatBurst),
		draw: rate.NewLimiter(rate.Limit(l.DrawPerSecond), l.DrawBurst),
	}
}

func (l *limiter) allow(t protocol.Type) bool {
	switch t {
	case protocol.TypeChat:
		return l.chat.Allow()
	case protocol.TypeDraw:
		return l.draw.Allow()
	}
	return true
}

// conn is one websocket with a dedicated writer goroutine. Frames are queued
// without blocking; a connection that cannot keep up is closed. A nil frame
// closes the connection once everything before it is written.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	hb   Heartbeat

	// joined is set once the peer has been sent the session state; hub
	// broadcasts skip peers until then.
	joined atomic.Bool

	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, hb Heartbeat) *conn {
	c := &conn{
		ws:   ws,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
		hb:   hb.orDefault(),
	}
	ws.SetReadLimit(maxFrameBytes)
	c.alive()
	ws.SetPongHandler(func(string) error {
		c.alive()
		return nil
	})
	go c.writeLoop()
	return c
}

// alive pushes the read deadline out; called on every pong and frame.
func (c *conn) alive() {
	_ = c.ws.SetReadDeadline(time.Now().Add(c.hb.Timeout))
}

// read returns the next data frame. It fails once the peer has been silent
// for longer than the heartbeat timeout.
func (c *conn) read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	c.alive()
	return data, nil
}

func (c *conn) enqueue(b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		c.Close()
		return ErrSendQueue
	}
}

func (c *conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(c.hb.Ping)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if msg == nil {
				c.closeWithReason(websocket.CloseNormalClosure, "disconnected by host")
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// closeWithReason sends a close frame before dropping the socket.
func (c *conn) closeWithReason(code int, text string) {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	c.Close()
}
