package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"example.com/drawguess/internal/guess"
	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/session"
)

// terminal renders session events as lines of text.
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminal(w io.Writer) *terminal {
	return &terminal{w: w}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

func (t *terminal) OnStateChange(v protocol.Snapshot) {
	switch v.Phase {
	case protocol.PhaseLobby:
		t.printf("-- lobby: %d players, %d rounds, %ds per turn\n", len(v.Players), v.Settings.TotalRounds, v.Settings.DrawTimeSeconds)
	case protocol.PhaseDrawing:
		t.printf("-- round %d, %s is drawing: %s\n", v.Round, nameOf(v.Players, v.DrawerID), spaced(v.MaskedWord))
	}
}

func (t *terminal) OnTimerUpdate(m protocol.TimerUpdate) {
	if m.Time > 0 && (m.Time%10 == 0 || m.Time <= 5) {
		t.printf("   %ds left\n", m.Time)
	}
}

func (t *terminal) OnWordSelect(m protocol.WordSelectPhase) {
	if m.Words == nil {
		t.printf("-- round %d: a word is being chosen\n", m.Round)
		return
	}
	t.printf("-- your turn to draw, pick a word with /pick N:\n")
	for i, w := range m.Words {
		t.printf("   %d) %s\n", i+1, w)
	}
}

func (t *terminal) OnHintReveal(masked string) {
	t.printf("   hint: %s\n", spaced(masked))
}

func (t *terminal) OnPlayerUpdate(players []protocol.Player) {
	names := make([]string, 0, len(players))
	for _, p := range players {
		n := fmt.Sprintf("%s (%d)", p.Name, p.Score)
		if p.IsHost {
			n += "*"
		}
		names = append(names, n)
	}
	t.printf("   players: %s\n", strings.Join(names, ", "))
}

func (t *terminal) OnRoundEnd(m protocol.RoundEnd) {
	t.printf("-- the word was %q\n", m.Word)
	for _, s := range m.Scores {
		t.printf("   %s +%d\n", s.PlayerName, s.Delta)
	}
}

func (t *terminal) OnGameEnd(standings []protocol.Standing) {
	t.printf("-- game over\n")
	for _, s := range standings {
		t.printf("   %d. %s %d\n", s.Rank, s.PlayerName, s.Score)
	}
}

func (t *terminal) OnChat(m protocol.Chat) {
	t.printf("<%s> %s\n", m.PlayerName, m.Message)
}

func (t *terminal) OnGuessResult(r session.GuessResult) {
	switch r.Kind {
	case guess.Correct:
		t.printf("** %s guessed the word! +%d\n", r.PlayerName, r.Points)
	case guess.Close:
		t.printf("** %s is close\n", r.PlayerName)
	}
}

func (t *terminal) OnTerminate(reason string) {
	t.printf("-- session ended: %s\n", reason)
}

func nameOf(players []protocol.Player, id string) string {
	for _, p := range players {
		if p.ID == id {
			return p.Name
		}
	}
	return "someone"
}

func spaced(masked string) string {
	return strings.Join(strings.Split(masked, ""), " ")
}
