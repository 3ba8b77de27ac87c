package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/session"
	"example.com/drawguess/internal/transport"
)

const archiveQueue = 8

// Host runs a session: the authoritative game behind a listening hub.
type Host struct {
	app  *App
	log  *slog.Logger
	game *session.Game
	hub  *transport.Hub
	srv  *http.Server
	ln   net.Listener
	code string

	results chan session.Result
}

// NewHost opens the listener and claims a room code. Run serves it.
func (a *App) NewHost(ctx context.Context, name string, obs session.Observer) (*Host, error) {
	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.cfg.HTTP.Addr, err)
	}
	advertise := a.cfg.AdvertiseAddr(ln.Addr().String())

	h := &Host{
		app:     a,
		log:     a.log,
		ln:      ln,
		results: make(chan session.Result, archiveQueue),
	}
	h.hub = transport.NewHub(transport.HubOptions{
		Addr:      advertise,
		Directory: a.dir,
		Logger:    a.log,
		Heartbeat: a.heartbeat(),
		Limits: transport.Limits{
			ChatPerSecond: a.cfg.Transport.ChatPerSecond,
			ChatBurst:     a.cfg.Transport.ChatBurst,
			DrawPerSecond: a.cfg.Transport.DrawPerSecond,
			DrawBurst:     a.cfg.Transport.DrawBurst,
		},
	})

	h.game, err = session.New(session.Options{
		Authoritative: true,
		SelfID:        uuid.NewString(),
		SelfName:      name,
		Settings:      a.cfg.Game.Settings,
		Words:         a.words,
		Canvas:        drawing.NewSynchronizer(drawing.NewCanvas(a.cfg.Game.CanvasWidth, a.cfg.Game.CanvasHeight), drawing.SyncOptions{}),
		Observer:      obs,
		Logger:        a.log,
		Outbox:        h.hub,
		OnFinish:      h.onFinish,
	})
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	h.hub.SetHandler(hostHandler{h})

	h.code, err = h.hub.CreateSession(ctx)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	h.log = a.log.With("session", h.code)

	h.srv = &http.Server{
		Handler:           h.hub.Routes(),
		ReadHeaderTimeout: a.cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       a.cfg.HTTP.IdleTimeout,
	}
	return h, nil
}

func (h *Host) Code() string { return h.code }
func (h *Host) Addr() string { return h.ln.Addr().String() }
func (h *Host) Game() *session.Game { return h.game }
func (h *Host) Hub() *transport.Hub { return h.hub }

// Kick removes a guest and closes its connection.
func (h *Host) Kick(peerID string) error {
	if err := h.game.Kick(peerID); err != nil {
		return err
	}
	h.hub.Disconnect(peerID)
	return nil
}

// Run serves until ctx ends, then tells guests the host left and shuts down.
func (h *Host) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	h.log.Info("http server starting", "addr", h.Addr())

	g.Go(func() error {
		err := h.srv.Serve(h.ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return h.hub.KeepAlive(gctx, h.app.cfg.Transport.RefreshEvery)
	})

	g.Go(func() error {
		h.archiveLoop(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.app.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		h.log.Info("session shutting down")
		h.game.Terminate(session.ReasonHostLeft)
		if err := h.hub.Close(shutdownCtx); err != nil {
			h.log.Warn("release room code failed", "err", err)
		}
		_ = h.srv.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}

// onFinish runs under the game lock.
func (h *Host) onFinish(r session.Result) {
	select {
	case h.results <- r:
	default:
		h.log.Warn("archive queue full, result dropped", "game", r.GameID)
	}
}

func (h *Host) archiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// drain what already finished
			for {
				select {
				case r := <-h.results:
					h.save(context.WithoutCancel(ctx), r)
				default:
					return
				}
			}
		case r := <-h.results:
			h.save(ctx, r)
		}
	}
}

func (h *Host) save(ctx context.Context, r session.Result) {
	if h.app.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.app.archive.Save(ctx, h.code, r); err != nil {
		h.log.Error("archive game failed", "game", r.GameID, "err", err)
		return
	}
	h.log.Info("game archived", "game", r.GameID, "players", len(r.Standings))
}

// hostHandler feeds hub events into the host game.
type hostHandler struct{ h *Host }

func (hh hostHandler) PeerJoined(peerID string) {
	hh.h.log.Debug("peer awaiting player info", "peer", peerID)
}

func (hh hostHandler) PeerLeft(peerID string) {
	if err := hh.h.game.RemovePlayer(peerID); err != nil && !errors.Is(err, session.ErrTerminated) {
		hh.h.log.Warn("remove player failed", "peer", peerID, "err", err)
	}
}

func (hh hostHandler) MessageReceived(peerID string, msg protocol.Message) {
	info, ok := msg.(protocol.PlayerInfo)
	if !ok {
		hh.h.game.HandleMessage(peerID, msg)
		return
	}
	if err := hh.h.game.AddPlayer(peerID, info.Name); err != nil {
		hh.h.log.Info("join refused", "peer", peerID, "err", err)
		hh.h.hub.Disconnect(peerID)
	}
}

func (hostHandler) ConnectionLost(error) {}
