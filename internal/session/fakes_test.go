package session

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/drawguess/internal/protocol"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c    *fakeClock
	at   time.Time
	f    func()
	done bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

// Advance fires due timers in deadline order. Callbacks run without the
// clock lock so they can arm new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		live := c.timers[:0]
		for _, t := range c.timers {
			if t.done {
				continue
			}
			live = append(live, t)
			if !t.at.After(target) && (next == nil || t.at.Before(next.at)) {
				next = t
			}
		}
		c.timers = live
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

func (c *fakeClock) seconds(n int) {
	for range n {
		c.Advance(time.Second)
	}
}

type sent struct {
	to      string // empty for broadcasts
	exclude string
	msg     protocol.Message
}

type recOutbox struct {
	mu  sync.Mutex
	log []sent
}

func (o *recOutbox) Broadcast(msg protocol.Message, excludeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, sent{exclude: excludeID, msg: msg})
}

func (o *recOutbox) SendTo(peerID string, msg protocol.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, sent{to: peerID, msg: msg})
}

func (o *recOutbox) all() []sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]sent(nil), o.log...)
}

func (o *recOutbox) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = nil
}

// to lists what guest id would have received, in order.
func (o *recOutbox) to(id string) []protocol.Message {
	var out []protocol.Message
	for _, s := range o.all() {
		if s.to == id || (s.to == "" && s.exclude != id) {
			out = append(out, s.msg)
		}
	}
	return out
}

func (o *recOutbox) broadcasts() []protocol.Message {
	var out []protocol.Message
	for _, s := range o.all() {
		if s.to == "" {
			out = append(out, s.msg)
		}
	}
	return out
}

func ofType[T protocol.Message](msgs []protocol.Message) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

type recObserver struct {
	mu          sync.Mutex
	states      []protocol.Snapshot
	ticks       []protocol.TimerUpdate
	wordSelects []protocol.WordSelectPhase
	hints       []string
	players     [][]protocol.Player
	roundEnds   []protocol.RoundEnd
	gameEnds    [][]protocol.Standing
	chats       []protocol.Chat
	guesses     []GuessResult
	terminated  []string
}

func (r *recObserver) OnStateChange(v protocol.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, v)
}

func (r *recObserver) OnTimerUpdate(t protocol.TimerUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
}

func (r *recObserver) OnWordSelect(m protocol.WordSelectPhase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wordSelects = append(r.wordSelects, m)
}

func (r *recObserver) OnHintReveal(masked string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints = append(r.hints, masked)
}

func (r *recObserver) OnPlayerUpdate(p []protocol.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append(r.players, p)
}

func (r *recObserver) OnRoundEnd(m protocol.RoundEnd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roundEnds = append(r.roundEnds, m)
}

func (r *recObserver) OnGameEnd(s []protocol.Standing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameEnds = append(r.gameEnds, s)
}

func (r *recObserver) OnChat(m protocol.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, m)
}

func (r *recObserver) OnGuessResult(g GuessResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guesses = append(r.guesses, g)
}

func (r *recObserver) OnTerminate(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated = append(r.terminated, reason)
}

type harness struct {
	g     *Game
	clock *fakeClock
	out   *recOutbox
	obs   *recObserver
}

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newHarness(t *testing.T, s protocol.Settings, guests ...string) *harness {
	t.Helper()
	h := &harness{clock: newFakeClock(), out: &recOutbox{}, obs: &recObserver{}}
	g, err := New(Options{
		Authoritative: true,
		SelfID:        "host",
		SelfName:      "Hana",
		Settings:      s,
		Clock:         h.clock,
		Rand:          rand.New(rand.NewPCG(7, 11)),
		Outbox:        h.out,
		Observer:      h.obs,
		Logger:        quietLogger(),
	})
	require.NoError(t, err)
	for _, id := range guests {
		require.NoError(t, g.AddPlayer(id, "name-"+id))
	}
	h.g = g
	h.out.reset()
	return h
}

func (h *harness) drawer() string { return h.g.Snapshot().DrawerID }

// guessers are everyone but the drawer, in roster order.
func (h *harness) guessers() []string {
	var out []string
	d := h.drawer()
	for _, p := range h.g.Players() {
		if p.ID != d {
			out = append(out, p.ID)
		}
	}
	return out
}

// force makes word selectable this turn and has the drawer pick it.
func (h *harness) force(t *testing.T, word string) {
	t.Helper()
	require.Equal(t, protocol.PhaseWordSelect, h.g.Phase())
	h.g.mu.Lock()
	h.g.candidates = append(h.g.candidates, word)
	h.g.mu.Unlock()
	h.g.HandleMessage(h.drawer(), protocol.WordChosen{Word: word})
	require.Equal(t, protocol.PhaseDrawing, h.g.Phase())
}

func (h *harness) name(id string) string {
	for _, p := range h.g.Players() {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func (h *harness) score(id string) int {
	for _, p := range h.g.Players() {
		if p.ID == id {
			return p.Score
		}
	}
	return -1
}
