package session

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/words"
)

// enterLocked is the single place phases change. Every timer armed by the
// previous phase is stopped first.
func (g *Game) enterLocked(p protocol.Phase) {
	g.timers.sweep()
	g.phase = p
}

// afterLocked arms f to run under the lock after d, unless a transition
// happens first.
func (g *Game) afterLocked(d time.Duration, f func()) {
	token := g.timers.gen
	g.timers.add(g.phase, g.clock.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if token != g.timers.gen || g.terminated {
			return // stale timer
		}
		f()
	}))
}

func (g *Game) tickLocked() {
	g.afterLocked(time.Second, g.onTickLocked)
}

func (g *Game) onTickLocked() {
	g.remaining--
	g.broadcastLocked(protocol.TimerUpdate{Time: g.remaining, MaxTime: g.maxTime, Phase: g.phase}, "")

	switch g.phase {
	case protocol.PhaseWordSelect:
		if g.remaining <= 0 {
			w := g.candidates[g.rng.IntN(len(g.candidates))]
			g.log.Debug("word auto-selected", g.logAttrs()...)
			g.beginDrawingLocked(w)
			return
		}
	case protocol.PhaseDrawing:
		if slices.Contains(g.hintAt, g.remaining) {
			g.revealLocked()
		}
		if g.remaining <= 0 {
			g.endTurnLocked()
			return
		}
	default:
		return
	}
	g.tickLocked()
}

func (g *Game) startLocked() {
	g.drawingOrder = g.drawingOrder[:0]
	for _, p := range g.players {
		p.score = 0
		g.drawingOrder = append(g.drawingOrder, p.id)
	}
	g.rng.Shuffle(len(g.drawingOrder), func(i, j int) {
		g.drawingOrder[i], g.drawingOrder[j] = g.drawingOrder[j], g.drawingOrder[i]
	})
	g.round = 1
	g.drawerIndex = 0
	g.drawerLeft = false
	g.standings = nil
	g.gameID = uuid.NewString()
	g.startedAt = g.clock.Now()

	g.log.Info("game started", "game", g.gameID, "players", len(g.drawingOrder))
	g.broadcastLocked(protocol.PlayersUpdate{Players: g.playersLocked()}, "")
	g.beginWordSelectLocked()
}

func (g *Game) wordPoolLocked() []string {
	if g.settings.CustomWordsOnly {
		return g.settings.CustomWords
	}
	return append(g.words.Pool(g.settings.Language), g.settings.CustomWords...)
}

func (g *Game) resetTurnLocked() {
	for _, p := range g.players {
		p.hasGuessed = false
	}
	clear(g.ledger)
	clear(g.revealed)
	g.candidates = nil
	g.word = ""
	g.maskedWord = ""
	g.hintAt = nil
}

func (g *Game) beginWordSelectLocked() {
	g.enterLocked(protocol.PhaseWordSelect)
	g.resetTurnLocked()
	g.canvas.SetDrawer("", false)

	candidates, err := words.Candidates(g.wordPoolLocked(), g.settings.WordChoicesPerTurn, g.rng)
	if err != nil {
		g.log.Error("no words to offer", append(g.logAttrs(), "err", err)...)
		g.finishLocked()
		return
	}
	g.candidates = candidates
	g.remaining = WordSelectSeconds
	g.maxTime = WordSelectSeconds

	drawer := g.drawerIDLocked()
	announce := protocol.WordSelectPhase{
		DrawerID:     drawer,
		Round:        g.round,
		DrawerIndex:  g.drawerIndex,
		DrawingOrder: slices.Clone(g.drawingOrder),
		TimeLimit:    WordSelectSeconds,
	}
	g.broadcastLocked(announce, drawer)
	announce.Words = slices.Clone(candidates)
	g.sendToLocked(drawer, announce)

	g.log.Debug("word select", append(g.logAttrs(), "drawer", drawer)...)
	g.tickLocked()
}

func (g *Game) beginDrawingLocked(word string) {
	g.enterLocked(protocol.PhaseDrawing)
	g.word = strings.ToLower(word)
	g.candidates = nil
	clear(g.revealed)
	g.remaining = g.settings.DrawTimeSeconds
	g.maxTime = g.settings.DrawTimeSeconds
	g.hintAt = HintOffsets(g.settings.DrawTimeSeconds, g.settings.HintCount)

	drawer := g.drawerIDLocked()
	g.canvas.Reset()
	g.canvas.SetDrawer(drawer, drawer == g.selfID)

	g.sendToLocked(drawer, protocol.YourWord{Word: g.word})
	g.broadcastLocked(protocol.DrawingStart{
		DrawerID:     drawer,
		Round:        g.round,
		DrawerIndex:  g.drawerIndex,
		DrawingOrder: slices.Clone(g.drawingOrder),
		MaskedWord:   MaskWord(g.word, g.revealed, false),
		MaxTime:      g.maxTime,
	}, "")

	g.log.Debug("drawing started", append(g.logAttrs(), "drawer", drawer)...)
	g.tickLocked()
}

func (g *Game) revealLocked() {
	var hidden []int
	for _, i := range letterIndices(g.word) {
		if !g.revealed[i] {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return
	}
	g.revealed[hidden[g.rng.IntN(len(hidden))]] = true
	g.broadcastLocked(protocol.HintReveal{MaskedWord: MaskWord(g.word, g.revealed, false)}, "")
}

func (g *Game) allGuessedLocked() bool {
	drawer := g.drawerIDLocked()
	guessers := 0
	for _, p := range g.players {
		if p.id == drawer {
			continue
		}
		if !p.hasGuessed {
			return false
		}
		guessers++
	}
	return guessers > 0
}

func (g *Game) endTurnLocked() {
	g.enterLocked(protocol.PhaseRoundEnd)
	g.canvas.SetDrawer("", false)

	var scores []protocol.ScoreDelta
	for _, p := range g.players {
		if d := g.ledger[p.id]; d > 0 {
			scores = append(scores, protocol.ScoreDelta{PlayerID: p.id, PlayerName: p.name, Delta: d})
		}
	}
	g.broadcastLocked(protocol.RoundEnd{Word: g.word, Scores: scores}, "")

	g.log.Debug("turn ended", append(g.logAttrs(), "word", g.word, "scorers", len(scores))...)
	g.afterLocked(RoundEndHold*time.Second, g.advanceLocked)
}

func (g *Game) advanceLocked() {
	if g.drawerLeft {
		g.drawerLeft = false
	} else {
		g.drawerIndex++
	}
	if g.drawerIndex >= len(g.drawingOrder) {
		g.drawerIndex = 0
		g.round++
	}
	if g.round > g.settings.TotalRounds || len(g.drawingOrder) < 2 {
		g.finishLocked()
		return
	}
	g.beginWordSelectLocked()
}

func (g *Game) finishLocked() {
	g.enterLocked(protocol.PhaseGameEnd)
	g.canvas.SetDrawer("", false)
	g.resetTurnLocked()
	g.standings = Standings(g.playersLocked(), g.drawingOrder)
	g.broadcastLocked(protocol.GameEnd{Standings: slices.Clone(g.standings)}, "")

	g.log.Info("game finished", "game", g.gameID, "rounds", min(g.round, g.settings.TotalRounds))
	if g.onFinish != nil && g.gameID != "" {
		g.onFinish(Result{
			GameID:    g.gameID,
			StartedAt: g.startedAt,
			EndedAt:   g.clock.Now(),
			Rounds:    min(g.round, g.settings.TotalRounds),
			Settings:  g.settings,
			Standings: slices.Clone(g.standings),
		})
	}
}

func (g *Game) resetLocked() {
	g.enterLocked(protocol.PhaseLobby)
	g.resetTurnLocked()
	for _, p := range g.players {
		p.score = 0
	}
	g.round = 0
	g.drawingOrder = nil
	g.drawerIndex = 0
	g.drawerLeft = false
	g.remaining = 0
	g.maxTime = 0
	g.standings = nil
	g.gameID = ""
	g.canvas.Reset()
	g.canvas.SetDrawer("", false)
	g.broadcastLocked(protocol.PlayAgain{Players: g.playersLocked()}, "")
}
