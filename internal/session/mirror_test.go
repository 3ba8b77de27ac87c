package session

import (
	"image/color"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/protocol"
)

// loopback wires one host and its mirrors in-process. Host fan-out is
// applied synchronously; guest sends are queued until flush, as they would
// be on separate connections.
type loopback struct {
	host   *Game
	guests map[string]*Game
	queue  []func()
}

type loopOutbox struct{ l *loopback }

func (o loopOutbox) Broadcast(msg protocol.Message, excludeID string) {
	for id, g := range o.l.guests {
		if id != excludeID {
			g.Apply(msg)
		}
	}
}

func (o loopOutbox) SendTo(peerID string, msg protocol.Message) {
	if g, ok := o.l.guests[peerID]; ok {
		g.Apply(msg)
	}
}

type loopUpstream struct {
	l  *loopback
	id string
}

func (u loopUpstream) Send(msg protocol.Message) error {
	u.l.queue = append(u.l.queue, func() { u.l.host.HandleMessage(u.id, msg) })
	return nil
}

func (l *loopback) flush() {
	for len(l.queue) > 0 {
		f := l.queue[0]
		l.queue = l.queue[1:]
		f()
	}
}

func newLoopback(t *testing.T, hostCanvas *drawing.Canvas, guests map[string]*drawing.Canvas) *loopback {
	t.Helper()
	l := &loopback{guests: map[string]*Game{}}
	host, err := New(Options{
		Authoritative: true,
		SelfID:        "host",
		SelfName:      "Hana",
		Clock:         newFakeClock(),
		Rand:          rand.New(rand.NewPCG(3, 5)),
		Canvas:        drawing.NewSynchronizer(hostCanvas, drawing.SyncOptions{}),
		Outbox:        loopOutbox{l},
		Logger:        quietLogger(),
	})
	require.NoError(t, err)
	l.host = host
	for id, c := range guests {
		g, err := New(Options{
			Canvas:   drawing.NewSynchronizer(c, drawing.SyncOptions{}),
			Upstream: loopUpstream{l: l, id: id},
			Logger:   quietLogger(),
		})
		require.NoError(t, err)
		l.guests[id] = g
	}
	return l
}

var red = drawing.Color{R: 0xff, A: 0xff}

func TestMirror_FollowsHostThroughATurn(t *testing.T) {
	hostCanvas := drawing.NewCanvas(800, 600)
	guestCanvas := drawing.NewCanvas(400, 300)
	l := newLoopback(t, hostCanvas, map[string]*drawing.Canvas{"g1": guestCanvas})
	guest := l.guests["g1"]

	l.host.HandleMessage("g1", protocol.PlayerInfo{Name: "Gus"})

	snap := guest.Snapshot()
	assert.Equal(t, "g1", snap.YouID)
	assert.Equal(t, protocol.PhaseLobby, snap.Phase)
	require.Len(t, guest.Players(), 2)

	require.NoError(t, l.host.Start())
	hs, gs := l.host.Snapshot(), guest.Snapshot()
	assert.Equal(t, protocol.PhaseWordSelect, gs.Phase)
	assert.Equal(t, hs.DrawerID, gs.DrawerID)
	assert.Equal(t, hs.DrawingOrder, gs.DrawingOrder)
	assert.Equal(t, 1, gs.Round)

	var word string
	if hs.DrawerID == "g1" {
		cands := guest.Candidates()
		require.Len(t, cands, 3)
		word = cands[0]
		require.NoError(t, guest.ChooseCandidate(0))
		l.flush()
		require.Equal(t, protocol.PhaseDrawing, l.host.Phase())
		assert.Equal(t, strings.ToUpper(word), guest.Snapshot().MaskedWord)

		// guest canvas is half the host's size; the stroke lands at the same spot
		require.NoError(t, guest.BeginStroke(drawing.Point{X: 200, Y: 150}, red, 4))
		l.flush()
		assert.Equal(t, color.RGBA(red), hostCanvas.Image().RGBAAt(400, 300))

		require.NoError(t, l.host.Chat(word))
	} else {
		assert.Empty(t, guest.Candidates())
		word = l.host.Candidates()[0]
		require.NoError(t, l.host.ChooseWord(word))
		gs = guest.Snapshot()
		assert.Equal(t, protocol.PhaseDrawing, gs.Phase)
		assert.Equal(t, MaskWord(word, nil, false), gs.MaskedWord)

		require.NoError(t, l.host.BeginStroke(drawing.Point{X: 400, Y: 300}, red, 8))
		assert.Equal(t, color.RGBA(red), guestCanvas.Image().RGBAAt(200, 150))
		require.ErrorIs(t, guest.BeginStroke(drawing.Point{X: 1, Y: 1}, red, 4), drawing.ErrNotDrawer)

		require.NoError(t, guest.Chat(word))
		l.flush()
	}

	gs = guest.Snapshot()
	require.Equal(t, protocol.PhaseRoundEnd, gs.Phase)
	assert.Equal(t, strings.ToUpper(word), gs.MaskedWord)
	assert.Equal(t, l.host.Players(), guest.Players())

	scores := map[string]int{}
	for _, p := range guest.Players() {
		scores[p.ID] = p.Score
	}
	guesser := "host"
	if hs.DrawerID == "host" {
		guesser = "g1"
	}
	assert.Equal(t, 500, scores[guesser])
	assert.Equal(t, 25, scores[hs.DrawerID])
}

func TestMirror_IgnoresDrawsFromNonDrawer(t *testing.T) {
	canvas := drawing.NewCanvas(100, 100)
	g, err := New(Options{Canvas: drawing.NewSynchronizer(canvas, drawing.SyncOptions{}), Logger: quietLogger()})
	require.NoError(t, err)

	g.Apply(protocol.GameState{Snapshot: protocol.Snapshot{
		Phase:    protocol.PhaseDrawing,
		DrawerID: "alice",
		Players:  []protocol.Player{{ID: "alice"}, {ID: "me"}},
		YouID:    "me",
		Settings: DefaultSettings(),
	}})
	g.Apply(protocol.Draw{From: "mallory", Operation: drawing.FloodFill(drawing.Point{X: 0.5, Y: 0.5}, red)})
	assert.Equal(t, color.RGBA(drawing.White), canvas.Image().RGBAAt(50, 50))

	g.Apply(protocol.Draw{From: "alice", Operation: drawing.FloodFill(drawing.Point{X: 0.5, Y: 0.5}, red)})
	assert.Equal(t, color.RGBA(red), canvas.Image().RGBAAt(50, 50))
}

func TestMirror_ObserverSeesLifecycle(t *testing.T) {
	obs := &recObserver{}
	g, err := New(Options{Observer: obs, Logger: quietLogger()})
	require.NoError(t, err)

	g.Apply(protocol.GameState{Snapshot: protocol.Snapshot{Phase: protocol.PhaseLobby, YouID: "me", Settings: DefaultSettings()}})
	g.Apply(protocol.WordSelectPhase{DrawerID: "other", Round: 1, DrawingOrder: []string{"other", "me"}, TimeLimit: 15})
	g.Apply(protocol.TimerUpdate{Time: 14, MaxTime: 15, Phase: protocol.PhaseWordSelect})
	g.Apply(protocol.DrawingStart{DrawerID: "other", Round: 1, DrawingOrder: []string{"other", "me"}, MaskedWord: "___", MaxTime: 80})
	g.Apply(protocol.HintReveal{MaskedWord: "_A_"})
	g.Apply(protocol.RoundEnd{Word: "cat"})
	g.Apply(protocol.GameEnd{Standings: []protocol.Standing{{Rank: 1, PlayerID: "me"}}})
	g.Apply(protocol.TerminateGame{Reason: ReasonHostLeft})
	g.Apply(protocol.PlayAgain{})

	require.Len(t, obs.wordSelects, 1)
	assert.Nil(t, obs.wordSelects[0].Words)
	require.Len(t, obs.ticks, 1)
	assert.Equal(t, []string{"_A_"}, obs.hints)
	require.Len(t, obs.roundEnds, 1)
	require.Len(t, obs.gameEnds, 1)
	assert.Equal(t, []string{ReasonHostLeft}, obs.terminated)
	assert.True(t, g.Terminated())
	assert.Equal(t, protocol.PhaseGameEnd, g.Phase(), "nothing applies after terminate")

	var phases []protocol.Phase
	for _, s := range obs.states {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []protocol.Phase{
		protocol.PhaseLobby,
		protocol.PhaseWordSelect,
		protocol.PhaseDrawing,
		protocol.PhaseRoundEnd,
		protocol.PhaseGameEnd,
	}, phases)
}
