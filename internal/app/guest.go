package app

import (
	"context"
	"sync"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/session"
	"example.com/drawguess/internal/transport"
)

// Guest is a joined session: a mirror game fed by the host connection.
type Guest struct {
	game *session.Game

	mu     sync.Mutex
	client *transport.Client
	lost   error
}

// Join connects to the session behind code and introduces the player.
func (a *App) Join(ctx context.Context, code, name string, obs session.Observer) (*Guest, error) {
	g := &Guest{}
	var err error
	g.game, err = session.New(session.Options{
		Settings: a.cfg.Game.Settings,
		Words:    a.words,
		Canvas:   drawing.NewSynchronizer(drawing.NewCanvas(a.cfg.Game.CanvasWidth, a.cfg.Game.CanvasHeight), drawing.SyncOptions{}),
		Observer: obs,
		Logger:   a.log,
		Upstream: g,
	})
	if err != nil {
		return nil, err
	}

	client, err := transport.Join(ctx, code, guestHandler{g}, transport.JoinOptions{
		Directory:   a.dir,
		Logger:      a.log,
		Attempts:    a.cfg.Transport.JoinAttempts,
		Backoff:     a.cfg.Transport.JoinBackoff,
		DialTimeout: a.cfg.Transport.DialTimeout,
		Heartbeat:   a.heartbeat(),
	})
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.client = client
	g.mu.Unlock()

	if err := client.Send(protocol.PlayerInfo{Name: name}); err != nil {
		client.Close()
		return nil, err
	}
	return g, nil
}

func (g *Guest) Game() *session.Game { return g.game }

// Send implements session.Upstream.
func (g *Guest) Send(msg protocol.Message) error {
	g.mu.Lock()
	client := g.client
	g.mu.Unlock()
	if client == nil {
		return transport.ErrClosed
	}
	return client.Send(msg)
}

// Run blocks until the connection ends or ctx is done. It returns
// ErrPeerDisconnected if the host vanished without ending the session.
func (g *Guest) Run(ctx context.Context) error {
	g.mu.Lock()
	client := g.client
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		client.Close()
		<-client.Done()
		return nil
	case <-client.Done():
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lost
}

// Leave closes the connection; Run returns once it is gone.
func (g *Guest) Leave() {
	g.mu.Lock()
	client := g.client
	g.mu.Unlock()
	if client != nil {
		client.Close()
	}
}

type guestHandler struct{ g *Guest }

func (gh guestHandler) PeerJoined(string) {}
func (gh guestHandler) PeerLeft(string) {}

func (gh guestHandler) MessageReceived(_ string, msg protocol.Message) {
	gh.g.game.Apply(msg)
}

// ConnectionLost ends the local mirror unless the host already ended it.
func (gh guestHandler) ConnectionLost(err error) {
	if gh.g.game.Terminated() {
		return
	}
	gh.g.mu.Lock()
	gh.g.lost = err
	gh.g.mu.Unlock()
	gh.g.game.Terminate(session.ReasonHostLeft)
}
