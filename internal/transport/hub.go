package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"example.com/drawguess/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type HubOptions struct {
	// Addr is what guests dial, as registered in the directory.
	Addr      string
	Directory Directory
	Limits    Limits
	Heartbeat Heartbeat
	Logger    *slog.Logger

	// NewCode generates candidate room codes; nil uses NewCode.
	NewCode func() string
}

// Hub is the host side of a session: it owns the room code, accepts guest
// connections and fans host messages out to them.
type Hub struct {
	addr    string
	dir     Directory
	limits  Limits
	hb      Heartbeat
	newCode func() string
	log     *slog.Logger

	mu      sync.RWMutex
	code    string
	handler Handler
	peers   map[string]*conn
	closed  bool
}

func NewHub(opts HubOptions) *Hub {
	h := &Hub{
		addr:    opts.Addr,
		dir:     opts.Directory,
		limits:  opts.Limits,
		hb:      opts.Heartbeat.orDefault(),
		newCode: opts.NewCode,
		log:     opts.Logger,
		peers:   make(map[string]*conn),
	}
	if h.dir == nil {
		h.dir = StaticDirectory{Addr: opts.Addr}
	}
	if h.limits == (Limits{}) {
		h.limits = DefaultLimits()
	}
	if h.newCode == nil {
		h.newCode = NewCode
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

// SetHandler must be called before the hub serves connections.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// CreateSession claims a fresh room code in the directory.
func (h *Hub) CreateSession(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		code := h.newCode()
		err := h.dir.Register(ctx, code, h.addr)
		if err == nil {
			h.mu.Lock()
			h.code = code
			h.mu.Unlock()
			h.log.Info("session created", "code", code, "addr", h.addr, "attempt", attempt)
			return code, nil
		}
		lastErr = err
		if !errors.Is(err, ErrCodeTaken) {
			break
		}
		h.log.Debug("room code collision", "code", code, "attempt", attempt)
	}
	return "", fmt.Errorf("%w: %v", ErrSessionCreation, lastErr)
}

func (h *Hub) Code() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.code
}

func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// KeepAlive refreshes the directory entry every interval until ctx ends.
func (h *Hub) KeepAlive(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			code := h.Code()
			if code == "" {
				continue
			}
			if err := h.dir.Refresh(ctx, code); err != nil && ctx.Err() == nil {
				h.log.Warn("directory refresh failed", "code", code, "err", err)
			}
		}
	}
}

// Broadcast queues msg for every joined peer except excludeID. A peer joins
// when it is sent a gameState; until then it only gets frames sent to it.
func (h *Hub) Broadcast(msg protocol.Message, excludeID string) {
	b, err := protocol.Encode(msg)
	if err != nil {
		h.log.Error("encode failed", "type", msg.Type(), "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.peers {
		if id == excludeID || !c.joined.Load() {
			continue
		}
		if err := c.enqueue(b); err != nil {
			h.log.Warn("dropping slow peer", "peer", id, "err", err)
		}
	}
}

// SendTo queues msg for one peer. Unknown peers are ignored.
func (h *Hub) SendTo(peerID string, msg protocol.Message) {
	h.mu.RLock()
	c, ok := h.peers[peerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	b, err := protocol.Encode(msg)
	if err != nil {
		h.log.Error("encode failed", "type", msg.Type(), "err", err)
		return
	}
	if msg.Type() == protocol.TypeGameState {
		c.joined.Store(true)
	}
	if err := c.enqueue(b); err != nil {
		h.log.Warn("dropping slow peer", "peer", peerID, "err", err)
	}
}

// Disconnect drops one peer after flushing what was already queued for it.
func (h *Hub) Disconnect(peerID string) {
	h.mu.RLock()
	c, ok := h.peers[peerID]
	h.mu.RUnlock()
	if ok && c.enqueue(nil) != nil {
		c.Close()
	}
}

// Close drops every peer after flushing its queue and releases the room code.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	code := h.code
	peers := make([]*conn, 0, len(h.peers))
	for _, c := range h.peers {
		peers = append(peers, c)
	}
	h.mu.Unlock()

	// flush what is queued, then drop; give up on peers at the deadline
	for _, c := range peers {
		if c.enqueue(nil) != nil {
			c.Close()
		}
	}
	for _, c := range peers {
		select {
		case <-c.done:
		case <-ctx.Done():
			c.Close()
		}
	}
	if code == "" {
		return nil
	}
	return h.dir.Release(context.WithoutCancel(ctx), code)
}

// Routes returns the hub's HTTP surface.
func (h *Hub) Routes() http.Handler {
	r := httprouter.New()
	r.GET("/healthz", healthHandler())
	r.GET("/session", h.sessionHandler())
	r.GET("/invite.png", h.inviteHandler())
	r.GET("/ws/:code", h.serveWS())
	return r
}

func (h *Hub) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		h.mu.RLock()
		code, handler, closed := h.code, h.handler, h.closed
		h.mu.RUnlock()

		if closed || code == "" || NormalizeCode(ps.ByName("code")) != code {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if handler == nil {
			http.Error(w, "session not ready", http.StatusServiceUnavailable)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := uuid.NewString()
		c := newConn(ws, h.hb)

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			c.closeWithReason(websocket.CloseGoingAway, "session closed")
			return
		}
		h.peers[id] = c
		h.mu.Unlock()

		h.log.Info("peer connected", "peer", id, "remote", r.RemoteAddr)
		handler.PeerJoined(id)
		h.readLoop(id, c, handler)

		h.mu.Lock()
		delete(h.peers, id)
		h.mu.Unlock()
		c.Close()
		h.log.Info("peer disconnected", "peer", id)
		handler.PeerLeft(id)
	}
}

func (h *Hub) readLoop(id string, c *conn, handler Handler) {
	lim := newLimiter(h.limits)
	for {
		data, err := c.read()
		if err != nil {
			h.log.Debug("peer read ended", "peer", id, "err", err)
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			h.log.Debug("bad frame", "peer", id, "err", err)
			continue
		}
		if !lim.allow(msg.Type()) {
			h.log.Debug("rate limited", "peer", id, "type", msg.Type())
			continue
		}
		handler.MessageReceived(id, msg)
	}
}
