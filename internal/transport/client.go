package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"example.com/drawguess/internal/protocol"
)

type JoinOptions struct {
	Directory Directory
	Logger    *slog.Logger

	// Attempts and Backoff govern retries of a failed dial; the backoff
	// doubles after each attempt.
	Attempts int
	Backoff  time.Duration
	// DialTimeout bounds each handshake.
	DialTimeout time.Duration
	Heartbeat   Heartbeat
}

func (o *JoinOptions) defaults() {
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Client is a guest's connection to the host hub.
type Client struct {
	code    string
	c       *conn
	handler Handler
	log     *slog.Logger

	mu      sync.Mutex
	leaving bool
	err     error
	done    chan struct{}
}

// Join resolves code and connects to its hub. Unknown codes fail at once
// with ErrSessionNotFound; unreachable hubs are retried before failing with
// ErrConnectionTimeout.
func Join(ctx context.Context, code string, handler Handler, opts JoinOptions) (*Client, error) {
	opts.defaults()
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, code)
	}
	if opts.Directory == nil {
		return nil, fmt.Errorf("%w: no directory", ErrSessionNotFound)
	}
	addr, err := opts.Directory.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	target, err := wsURL(addr, code)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	var (
		ws       *websocket.Conn
		attempts int
	)
	backoff := retry.WithMaxRetries(uint64(opts.Attempts-1), retry.NewExponential(opts.Backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		conn, resp, err := dialer.DialContext(ctx, target, nil)
		if err == nil {
			ws = conn
			return nil
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, code)
		}
		opts.Logger.Debug("dial failed", "addr", addr, "attempt", attempts, "err", err)
		return retry.RetryableError(err)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrConnectionTimeout, addr, attempts, err)
	}

	opts.Logger.Info("joined session", "code", code, "addr", addr, "attempt", attempts)
	return newClient(code, newConn(ws, opts.Heartbeat), handler, opts.Logger), nil
}

func wsURL(addr, code string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("bad hub address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + code
	return u.String(), nil
}

func newClient(code string, c *conn, handler Handler, log *slog.Logger) *Client {
	cl := &Client{
		code:    code,
		c:       c,
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
	go cl.readLoop()
	return cl
}

func (cl *Client) Code() string { return cl.code }

// Send queues msg for the host.
func (cl *Client) Send(msg protocol.Message) error {
	b, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return cl.c.enqueue(b)
}

// Done is closed once the connection is gone and ConnectionLost, if due,
// has returned.
func (cl *Client) Done() <-chan struct{} { return cl.done }

// Err reports why the connection ended; nil after Close.
func (cl *Client) Err() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.err
}

// Close leaves the session without waiting; ConnectionLost is not reported
// for it. Done fires once the reader has stopped.
func (cl *Client) Close() {
	cl.mu.Lock()
	cl.leaving = true
	cl.mu.Unlock()
	cl.c.closeWithReason(websocket.CloseNormalClosure, "left")
}

func (cl *Client) readLoop() {
	var readErr error
	for {
		data, err := cl.c.read()
		if err != nil {
			readErr = err
			break
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			cl.log.Debug("bad frame from host", "err", err)
			continue
		}
		cl.handler.MessageReceived(HostPeerID, msg)
	}
	cl.c.Close()

	cl.mu.Lock()
	leaving := cl.leaving
	if !leaving {
		cl.err = fmt.Errorf("%w: %v", ErrPeerDisconnected, readErr)
	}
	lost := cl.err
	cl.mu.Unlock()

	if !leaving {
		var ce *websocket.CloseError
		if errors.As(readErr, &ce) {
			cl.log.Info("host closed connection", "code", ce.Code, "text", ce.Text)
		} else {
			cl.log.Warn("connection to host lost", "err", readErr)
		}
		cl.handler.ConnectionLost(lost)
	}
	close(cl.done)
}
