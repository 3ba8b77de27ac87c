package session

import (
	"fmt"
	"slices"
	"strings"

	"example.com/drawguess/internal/guess"
	"example.com/drawguess/internal/protocol"
)

const (
	ReasonFull     = "full"
	ReasonKicked   = "kicked"
	ReasonHostLeft = "host left"
)

// AddPlayer admits a guest. The joiner gets the full session view and, when
// a turn is being drawn, the current canvas.
func (g *Game) AddPlayer(id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	return g.addLocked(id, name)
}

func (g *Game) addLocked(id, name string) error {
	if p := g.playerLocked(id); p != nil {
		p.name = cleanName(name, slices.Index(g.players, p)+1)
		g.broadcastLocked(protocol.PlayersUpdate{Players: g.playersLocked()}, "")
		return nil
	}
	if len(g.players) >= g.settings.MaxPlayers {
		g.sendToLocked(id, protocol.TerminateGame{Reason: ReasonFull})
		return fmt.Errorf("%w: %d players", ErrSessionFull, len(g.players))
	}

	g.players = append(g.players, &player{id: id, name: cleanName(name, len(g.players)+1)})
	g.log.Info("player joined", append(g.logAttrs(), "peer", id, "players", len(g.players))...)

	g.sendToLocked(id, protocol.GameState{Snapshot: g.viewLocked(id)})
	if g.phase == protocol.PhaseDrawing {
		if op, err := g.canvas.SnapshotOp(); err == nil {
			g.sendToLocked(id, protocol.Draw{From: g.drawerIDLocked(), Operation: op})
		} else {
			g.log.Warn("canvas snapshot failed", "peer", id, "err", err)
		}
	}
	g.broadcastLocked(protocol.PlayersUpdate{Players: g.playersLocked()}, "")
	return nil
}

// RemovePlayer drops a guest from the roster and the drawing order. Losing
// the drawer ends the turn; dropping below two players ends the game.
func (g *Game) RemovePlayer(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	if id == g.selfID {
		return fmt.Errorf("%w: host cannot leave its own session", ErrNotHost)
	}
	g.removeLocked(id)
	return nil
}

// Kick tells the guest why and removes it.
func (g *Game) Kick(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	if id == g.selfID || g.playerLocked(id) == nil {
		return nil
	}
	g.sendToLocked(id, protocol.TerminateGame{Reason: ReasonKicked})
	g.removeLocked(id)
	return nil
}

func (g *Game) removeLocked(id string) {
	i := slices.IndexFunc(g.players, func(p *player) bool { return p.id == id })
	if i < 0 {
		return
	}
	wasDrawer := id == g.drawerIDLocked()
	g.players = slices.Delete(g.players, i, i+1)
	delete(g.ledger, id)

	if j := slices.Index(g.drawingOrder, id); j >= 0 {
		g.drawingOrder = slices.Delete(g.drawingOrder, j, j+1)
		switch {
		case j < g.drawerIndex:
			g.drawerIndex--
		case j == g.drawerIndex && g.inTurnLocked():
			g.drawerLeft = true
		}
	}
	g.log.Info("player left", append(g.logAttrs(), "peer", id, "players", len(g.players))...)
	g.broadcastLocked(protocol.PlayersUpdate{Players: g.playersLocked()}, "")

	switch {
	case g.phase == protocol.PhaseLobby || g.phase == protocol.PhaseGameEnd:
	case len(g.players) < 2:
		g.finishLocked()
	case wasDrawer && g.phase != protocol.PhaseRoundEnd:
		g.endTurnLocked()
	case g.phase == protocol.PhaseDrawing && g.allGuessedLocked():
		g.endTurnLocked()
	}
}

func (g *Game) inTurnLocked() bool {
	switch g.phase {
	case protocol.PhaseWordSelect, protocol.PhaseDrawing, protocol.PhaseRoundEnd:
		return true
	}
	return false
}

// Start leaves the lobby. On error nothing changes.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	if g.phase != protocol.PhaseLobby {
		return fmt.Errorf("%w: start in %s", ErrWrongPhase, g.phase)
	}
	if len(g.players) < 2 {
		return ErrNotEnoughPlayers
	}
	if g.settings.CustomWordsOnly && len(g.settings.CustomWords) < MinCustomWords {
		return fmt.Errorf("%w: have %d", ErrNotEnoughCustomWords, len(g.settings.CustomWords))
	}
	g.startLocked()
	return nil
}

// UpdateSettings replaces the lobby settings and announces them.
func (g *Game) UpdateSettings(s protocol.Settings) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	if g.phase != protocol.PhaseLobby {
		return fmt.Errorf("%w: settings in %s", ErrWrongPhase, g.phase)
	}
	s, err := ValidateSettings(s)
	if err != nil {
		return err
	}
	if s.MaxPlayers < len(g.players) {
		return fmt.Errorf("%w: maxPlayers below current %d players", ErrInvalidSettings, len(g.players))
	}
	g.settings = s
	g.broadcastLocked(protocol.SettingsUpdate{Settings: s}, "")
	return nil
}

// PlayAgain returns to the lobby from any phase, keeping the roster.
func (g *Game) PlayAgain() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.hostCheckLocked(); err != nil {
		return err
	}
	g.resetLocked()
	return nil
}

// Terminate tears the session down for everyone. It is idempotent.
func (g *Game) Terminate(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return
	}
	g.timers.sweep()
	g.canvas.SetDrawer("", false)
	if g.authoritative {
		g.broadcastLocked(protocol.TerminateGame{Reason: reason}, "")
	} else {
		g.deliverLocked(protocol.TerminateGame{Reason: reason})
	}
	g.terminated = true
	g.log.Info("session terminated", "reason", reason)
}

func (g *Game) hostCheckLocked() error {
	if !g.authoritative {
		return ErrNotHost
	}
	if g.terminated {
		return ErrTerminated
	}
	return nil
}

// HandleMessage applies a frame received from guest from. Anything
// out of phase, from the wrong sender or meant for guests is dropped.
func (g *Game) HandleMessage(from string, msg protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.authoritative || g.terminated {
		return
	}
	switch m := msg.(type) {
	case protocol.PlayerInfo:
		if err := g.addLocked(from, m.Name); err != nil {
			g.log.Info("join refused", "peer", from, "err", err)
		}
	case protocol.WordChosen:
		if err := g.chooseLocked(from, m.Word); err != nil {
			g.log.Debug("word choice dropped", append(g.logAttrs(), "peer", from, "err", err)...)
		}
	case protocol.Chat:
		g.chatLocked(from, m.Message)
	case protocol.Draw:
		g.relayDrawLocked(from, m)
	default:
		g.log.Debug("unexpected message from guest", append(g.logAttrs(), "peer", from, "type", msg.Type())...)
	}
}

func (g *Game) chooseLocked(from, word string) error {
	if g.phase != protocol.PhaseWordSelect {
		return ErrWrongPhase
	}
	if from != g.drawerIDLocked() {
		return fmt.Errorf("%w: %s is not drawing", ErrWrongPhase, from)
	}
	i := slices.Index(g.candidates, guess.Normalize(word))
	if i < 0 {
		return ErrUnknownWord
	}
	g.beginDrawingLocked(g.candidates[i])
	return nil
}

func (g *Game) relayDrawLocked(from string, m protocol.Draw) {
	if g.phase != protocol.PhaseDrawing || from != g.drawerIDLocked() {
		g.log.Debug("draw dropped", append(g.logAttrs(), "peer", from)...)
		return
	}
	if _, err := g.canvas.ApplyRemote(from, m.Operation); err != nil {
		g.log.Debug("draw rejected", append(g.logAttrs(), "peer", from, "err", err)...)
		return
	}
	if g.outbox != nil {
		g.outbox.Broadcast(protocol.Draw{From: from, Operation: m.Operation}, from)
	}
}

// chatLocked routes one chat line. While drawing, non-drawers' lines are
// guesses; correct ones are never shown as text.
func (g *Game) chatLocked(from, text string) {
	text = strings.TrimSpace(text)
	p := g.playerLocked(from)
	if p == nil || text == "" {
		return
	}
	line := protocol.Chat{PlayerID: p.id, PlayerName: p.name, Message: text}
	if g.phase != protocol.PhaseDrawing {
		g.broadcastLocked(line, "")
		return
	}

	drawerID := g.drawerIDLocked()
	if from == drawerID || p.hasGuessed {
		return
	}

	res := guess.Evaluate(text, g.word, g.remaining, g.settings.DrawTimeSeconds)
	switch res.Kind {
	case guess.Correct:
		p.score += res.Points
		p.hasGuessed = true
		g.ledger[p.id] += res.Points
		if d := g.playerLocked(drawerID); d != nil {
			d.score += guess.DrawerPointsPerGuess
			g.ledger[d.id] += guess.DrawerPointsPerGuess
		}
		g.log.Debug("correct guess", append(g.logAttrs(), "peer", from, "points", res.Points)...)
		g.broadcastLocked(protocol.CorrectGuess{PlayerID: p.id, PlayerName: p.name, Score: res.Points}, "")
		g.broadcastLocked(protocol.PlayersUpdate{Players: g.playersLocked()}, "")
		if g.allGuessedLocked() {
			g.endTurnLocked()
		}
	case guess.Close:
		g.broadcastLocked(protocol.CloseGuess{PlayerID: p.id, PlayerName: p.name}, "")
	default:
		g.broadcastLocked(line, "")
	}
}
