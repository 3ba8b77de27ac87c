package session

import (
	"fmt"
	"strings"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/protocol"
)

// Chat sends a chat line or guess from the local participant.
func (g *Game) Chat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return ErrTerminated
	}
	if g.authoritative {
		g.chatLocked(g.selfID, text)
		return nil
	}
	return g.sendUpLocked(protocol.Chat{Message: text})
}

// ChooseWord picks one of the local drawer's candidates.
func (g *Game) ChooseWord(word string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return ErrTerminated
	}
	if g.authoritative {
		return g.chooseLocked(g.selfID, word)
	}
	if g.phase != protocol.PhaseWordSelect || g.drawerID != g.selfID {
		return ErrWrongPhase
	}
	return g.sendUpLocked(protocol.WordChosen{Word: word})
}

// ChooseCandidate picks the i-th candidate, as listed by Candidates.
func (g *Game) ChooseCandidate(i int) error {
	g.mu.Lock()
	if i < 0 || i >= len(g.candidates) {
		g.mu.Unlock()
		return fmt.Errorf("%w: no candidate %d", ErrUnknownWord, i)
	}
	w := g.candidates[i]
	g.mu.Unlock()
	return g.ChooseWord(w)
}

// Local drawing input, in local canvas pixels. Each call fails with
// drawing.ErrNotDrawer unless this participant is drawing right now.

func (g *Game) BeginStroke(p drawing.Point, c drawing.Color, widthPx float64) error {
	return g.drawLocal(func(s *drawing.Synchronizer) error { return s.BeginStroke(p, c, widthPx) })
}

func (g *Game) ContinueStroke(from, to drawing.Point, c drawing.Color, widthPx float64) error {
	return g.drawLocal(func(s *drawing.Synchronizer) error { return s.ContinueStroke(from, to, c, widthPx) })
}

func (g *Game) Fill(p drawing.Point, c drawing.Color) error {
	return g.drawLocal(func(s *drawing.Synchronizer) error { return s.Fill(p, c) })
}

func (g *Game) ClearCanvas() error {
	return g.drawLocal((*drawing.Synchronizer).ClearCanvas)
}

func (g *Game) Undo() error {
	return g.drawLocal((*drawing.Synchronizer).Undo)
}

func (g *Game) drawLocal(f func(*drawing.Synchronizer) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.terminated || g.phase != protocol.PhaseDrawing {
		return drawing.ErrNotDrawer
	}
	return f(g.canvas)
}

func (g *Game) sendUpLocked(msg protocol.Message) error {
	if g.upstream == nil {
		return ErrTerminated
	}
	if err := g.upstream.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type(), err)
	}
	return nil
}
