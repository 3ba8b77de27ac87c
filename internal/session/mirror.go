package session

import (
	"slices"
	"strings"

	"example.com/drawguess/internal/protocol"
)

// Apply folds one host broadcast into a guest mirror and notifies the
// observer. The host applies nothing here; its state is already current.
func (g *Game) Apply(msg protocol.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.authoritative || g.terminated {
		return
	}
	switch m := msg.(type) {
	case protocol.GameState:
		g.replaceLocked(m.Snapshot)

	case protocol.PlayersUpdate:
		g.setPlayersLocked(m.Players)

	case protocol.SettingsUpdate:
		g.settings = m.Settings

	case protocol.WordSelectPhase:
		g.phase = protocol.PhaseWordSelect
		g.round = m.Round
		g.drawerIndex = m.DrawerIndex
		g.drawingOrder = slices.Clone(m.DrawingOrder)
		g.drawerID = m.DrawerID
		g.resetTurnLocked()
		g.candidates = slices.Clone(m.Words)
		g.remaining = m.TimeLimit
		g.maxTime = m.TimeLimit
		g.canvas.SetDrawer("", false)

	case protocol.YourWord:
		g.word = strings.ToLower(m.Word)

	case protocol.DrawingStart:
		g.phase = protocol.PhaseDrawing
		g.round = m.Round
		g.drawerIndex = m.DrawerIndex
		g.drawingOrder = slices.Clone(m.DrawingOrder)
		g.drawerID = m.DrawerID
		g.candidates = nil
		g.maskedWord = m.MaskedWord
		g.remaining = m.MaxTime
		g.maxTime = m.MaxTime
		if m.DrawerID != g.selfID {
			g.word = ""
		}
		g.canvas.Reset()
		g.canvas.SetDrawer(m.DrawerID, m.DrawerID == g.selfID)

	case protocol.TimerUpdate:
		g.remaining = m.Time
		g.maxTime = m.MaxTime

	case protocol.HintReveal:
		g.maskedWord = m.MaskedWord

	case protocol.Draw:
		if _, err := g.canvas.ApplyRemote(m.From, m.Operation); err != nil {
			g.log.Debug("draw rejected", append(g.logAttrs(), "from", m.From, "err", err)...)
		}
		return

	case protocol.CorrectGuess:
		if p := g.playerLocked(m.PlayerID); p != nil {
			p.hasGuessed = true
		}

	case protocol.RoundEnd:
		g.phase = protocol.PhaseRoundEnd
		g.word = strings.ToLower(m.Word)
		g.canvas.SetDrawer("", false)

	case protocol.GameEnd:
		g.phase = protocol.PhaseGameEnd
		g.drawerID = ""
		g.resetTurnLocked()
		g.standings = slices.Clone(m.Standings)
		g.canvas.SetDrawer("", false)

	case protocol.PlayAgain:
		g.phase = protocol.PhaseLobby
		g.round = 0
		g.drawingOrder = nil
		g.drawerIndex = 0
		g.drawerID = ""
		g.remaining = 0
		g.maxTime = 0
		g.standings = nil
		g.resetTurnLocked()
		g.setPlayersLocked(m.Players)
		g.canvas.Reset()
		g.canvas.SetDrawer("", false)

	case protocol.TerminateGame:
		g.deliverLocked(m)
		g.terminated = true
		g.canvas.SetDrawer("", false)
		return

	case protocol.Chat, protocol.CloseGuess:

	default:
		g.log.Debug("unexpected message from host", "type", msg.Type())
		return
	}
	g.deliverLocked(msg)
}

// replaceLocked swaps the whole mirror for a host snapshot.
func (g *Game) replaceLocked(s protocol.Snapshot) {
	g.phase = s.Phase
	g.round = s.Round
	g.drawingOrder = slices.Clone(s.DrawingOrder)
	g.drawerIndex = s.DrawerIndex
	g.drawerID = s.DrawerID
	g.maskedWord = s.MaskedWord
	g.remaining = s.TimeRemaining
	g.maxTime = s.MaxTime
	g.settings = s.Settings
	if s.YouID != "" {
		g.selfID = s.YouID
	}
	g.setPlayersLocked(s.Players)

	g.word = ""
	g.candidates = nil
	if s.Phase == protocol.PhaseRoundEnd {
		g.word = strings.ToLower(s.MaskedWord)
	}
	if s.Phase == protocol.PhaseDrawing {
		g.canvas.SetDrawer(s.DrawerID, s.DrawerID == g.selfID)
	} else {
		g.canvas.SetDrawer("", false)
	}
}

func (g *Game) setPlayersLocked(players []protocol.Player) {
	g.players = g.players[:0]
	for _, p := range players {
		g.players = append(g.players, &player{
			id:         p.ID,
			name:       p.Name,
			score:      p.Score,
			isHost:     p.IsHost,
			hasGuessed: p.HasGuessed,
		})
	}
}
