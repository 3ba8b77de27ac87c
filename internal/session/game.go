// Package session is the turn state machine of one room. The host runs it
// authoritatively; every guest runs the same type as a passive mirror that is
// only ever updated from host broadcasts.
package session

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/guess"
	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/words"
)

// Outbox is the host's fan-out. The host's own player is never addressed
// through it.
type Outbox interface {
	Broadcast(msg protocol.Message, excludeID string)
	SendTo(peerID string, msg protocol.Message)
}

// Upstream is a guest's link to the host.
type Upstream interface {
	Send(msg protocol.Message) error
}

// Result is handed to OnFinish when a game reaches GameEnd.
type Result struct {
	GameID    string
	StartedAt time.Time
	EndedAt   time.Time
	Rounds    int
	Settings  protocol.Settings
	Standings []protocol.Standing
}

type Options struct {
	// Authoritative selects the host machine; false builds a mirror.
	Authoritative bool

	SelfID   string
	SelfName string
	Settings protocol.Settings

	Words    *words.List
	Clock    Clock
	Rand     *rand.Rand
	Canvas   *drawing.Synchronizer
	Observer Observer
	Logger   *slog.Logger

	Outbox   Outbox   // host
	Upstream Upstream // guest

	// OnFinish runs under the game lock; hand the result off, don't block.
	OnFinish func(Result)
}

type player struct {
	id         string
	name       string
	score      int
	isHost     bool
	hasGuessed bool
}

type Game struct {
	mu sync.Mutex

	authoritative bool
	selfID        string
	terminated    bool

	phase        protocol.Phase
	round        int
	drawingOrder []string
	drawerIndex  int
	drawerLeft   bool   // drawer removed mid-turn; next advance stays put
	drawerID     string // mirror only, as last broadcast
	settings     protocol.Settings

	players []*player

	candidates []string
	word       string // host always; guest only when drawing
	maskedWord string // guest view as last broadcast
	revealed   map[int]bool
	hintAt     []int
	remaining  int
	maxTime    int
	ledger     map[string]int

	gameID    string
	startedAt time.Time
	standings []protocol.Standing

	timers   *timers
	words    *words.List
	clock    Clock
	rng      *rand.Rand
	canvas   *drawing.Synchronizer
	observer Observer
	outbox   Outbox
	upstream Upstream
	onFinish func(Result)
	log      *slog.Logger
}

func New(opts Options) (*Game, error) {
	settings := opts.Settings
	if settings.MaxPlayers == 0 {
		settings = DefaultSettings()
	}
	settings, err := ValidateSettings(settings)
	if err != nil {
		return nil, err
	}

	g := &Game{
		authoritative: opts.Authoritative,
		selfID:        opts.SelfID,
		phase:         protocol.PhaseLobby,
		settings:      settings,
		revealed:      make(map[int]bool),
		ledger:        make(map[string]int),
		words:         opts.Words,
		clock:         opts.Clock,
		rng:           opts.Rand,
		canvas:        opts.Canvas,
		observer:      opts.Observer,
		outbox:        opts.Outbox,
		upstream:      opts.Upstream,
		onFinish:      opts.OnFinish,
		log:           opts.Logger,
	}
	if g.words == nil {
		g.words = words.Default()
	}
	if g.clock == nil {
		g.clock = SystemClock
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.canvas == nil {
		g.canvas = drawing.NewSynchronizer(drawing.NewCanvas(800, 600), drawing.SyncOptions{})
	}
	if g.observer == nil {
		g.observer = NopObserver{}
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	g.log = g.log.With("self", opts.SelfID, "host", opts.Authoritative)
	g.timers = newTimers(g.clock)
	g.canvas.SetEmitter(g.emitDrawLocked)

	if g.authoritative {
		g.players = append(g.players, &player{
			id:     opts.SelfID,
			name:   cleanName(opts.SelfName, 1),
			isHost: true,
		})
	}
	return g, nil
}

func (g *Game) Authoritative() bool { return g.authoritative }

func (g *Game) SelfID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selfID
}

// Canvas exposes the local synchronizer for rendering.
func (g *Game) Canvas() *drawing.Synchronizer { return g.canvas }

func (g *Game) Phase() protocol.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) Terminated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.terminated
}

// Snapshot is the local participant's view of the session.
func (g *Game) Snapshot() protocol.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked(g.selfID)
}

func (g *Game) Players() []protocol.Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playersLocked()
}

func (g *Game) Standings() []protocol.Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.standings)
}

// Candidates returns the words on offer this turn. A guest only has them
// while it is the one choosing.
func (g *Game) Candidates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.candidates)
}

func (g *Game) viewLocked(forID string) protocol.Snapshot {
	return protocol.Snapshot{
		Phase:         g.phase,
		Round:         g.round,
		DrawingOrder:  slices.Clone(g.drawingOrder),
		DrawerIndex:   g.drawerIndex,
		DrawerID:      g.drawerIDLocked(),
		MaskedWord:    g.maskedForLocked(forID),
		TimeRemaining: g.remaining,
		MaxTime:       g.maxTime,
		Settings:      g.settings,
		Players:       g.playersLocked(),
		YouID:         forID,
	}
}

func (g *Game) maskedForLocked(forID string) string {
	switch g.phase {
	case protocol.PhaseDrawing:
	case protocol.PhaseRoundEnd:
		return strings.ToUpper(g.word)
	default:
		return ""
	}
	isDrawer := forID == g.drawerIDLocked()
	if !g.authoritative {
		if isDrawer && g.word != "" {
			return strings.ToUpper(g.word)
		}
		return g.maskedWord
	}
	return MaskWord(g.word, g.revealed, isDrawer)
}

func (g *Game) drawerIDLocked() string {
	switch g.phase {
	case protocol.PhaseWordSelect, protocol.PhaseDrawing, protocol.PhaseRoundEnd:
	default:
		return ""
	}
	if !g.authoritative {
		return g.drawerID
	}
	if g.drawerLeft || g.drawerIndex < 0 || g.drawerIndex >= len(g.drawingOrder) {
		return ""
	}
	return g.drawingOrder[g.drawerIndex]
}

func (g *Game) playersLocked() []protocol.Player {
	out := make([]protocol.Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, protocol.Player{
			ID:         p.id,
			Name:       p.name,
			Score:      p.score,
			IsHost:     p.isHost,
			HasGuessed: p.hasGuessed,
		})
	}
	return out
}

func (g *Game) playerLocked(id string) *player {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

// broadcastLocked fans msg out to every guest and, unless the host itself is
// excluded, renders it locally.
func (g *Game) broadcastLocked(msg protocol.Message, excludeID string) {
	if g.outbox != nil {
		g.outbox.Broadcast(msg, excludeID)
	}
	if excludeID != g.selfID {
		g.deliverLocked(msg)
	}
}

func (g *Game) sendToLocked(peerID string, msg protocol.Message) {
	if peerID == g.selfID {
		g.deliverLocked(msg)
		return
	}
	if g.outbox != nil {
		g.outbox.SendTo(peerID, msg)
	}
}

// deliverLocked maps a message whose effect is already applied to the
// local state onto observer callbacks.
func (g *Game) deliverLocked(msg protocol.Message) {
	o := g.observer
	switch m := msg.(type) {
	case protocol.GameState:
		o.OnStateChange(g.viewLocked(g.selfID))
		o.OnPlayerUpdate(g.playersLocked())
	case protocol.PlayersUpdate:
		o.OnPlayerUpdate(m.Players)
	case protocol.SettingsUpdate, protocol.YourWord, protocol.DrawingStart:
		o.OnStateChange(g.viewLocked(g.selfID))
	case protocol.WordSelectPhase:
		o.OnStateChange(g.viewLocked(g.selfID))
		o.OnWordSelect(m)
	case protocol.TimerUpdate:
		o.OnTimerUpdate(m)
	case protocol.HintReveal:
		o.OnHintReveal(g.maskedForLocked(g.selfID))
	case protocol.Chat:
		o.OnChat(m)
	case protocol.CorrectGuess:
		o.OnGuessResult(GuessResult{Kind: guess.Correct, PlayerID: m.PlayerID, PlayerName: m.PlayerName, Points: m.Score})
	case protocol.CloseGuess:
		o.OnGuessResult(GuessResult{Kind: guess.Close, PlayerID: m.PlayerID, PlayerName: m.PlayerName})
	case protocol.RoundEnd:
		o.OnStateChange(g.viewLocked(g.selfID))
		o.OnRoundEnd(m)
	case protocol.GameEnd:
		o.OnStateChange(g.viewLocked(g.selfID))
		o.OnGameEnd(m.Standings)
	case protocol.PlayAgain:
		o.OnStateChange(g.viewLocked(g.selfID))
		o.OnPlayerUpdate(m.Players)
	case protocol.TerminateGame:
		o.OnTerminate(m.Reason)
	}
}

// emitDrawLocked is the synchronizer's outbound hook. Local draw calls hold
// the game lock while the synchronizer invokes it.
func (g *Game) emitDrawLocked(op drawing.Operation) {
	if g.authoritative {
		if g.outbox != nil {
			g.outbox.Broadcast(protocol.Draw{From: g.selfID, Operation: op}, g.selfID)
		}
		return
	}
	if g.upstream == nil {
		return
	}
	if err := g.upstream.Send(protocol.Draw{Operation: op}); err != nil {
		g.log.Debug("draw send failed", "err", err)
	}
}

func (g *Game) logAttrs() []any {
	return []any{"phase", g.phase, "round", g.round}
}

const maxNameRunes = 24

func cleanName(name string, n int) string {
	name = strings.Join(strings.Fields(name), " ")
	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}
	if name == "" {
		name = "Player " + strconv.Itoa(n)
	}
	return name
}
