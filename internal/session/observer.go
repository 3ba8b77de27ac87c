package session

import (
	"example.com/drawguess/internal/guess"
	"example.com/drawguess/internal/protocol"
)

// Observer is how the session reaches the rendering layer. Callbacks run with
// the game lock held and must not call back into the Game.
type Observer interface {
	OnStateChange(view protocol.Snapshot)
	OnTimerUpdate(t protocol.TimerUpdate)
	OnWordSelect(m protocol.WordSelectPhase)
	OnHintReveal(maskedWord string)
	OnPlayerUpdate(players []protocol.Player)
	OnRoundEnd(m protocol.RoundEnd)
	OnGameEnd(standings []protocol.Standing)
	OnChat(m protocol.Chat)
	OnGuessResult(r GuessResult)
	OnTerminate(reason string)
}

// GuessResult is a correct or close guess announced by the host.
type GuessResult struct {
	Kind       guess.Kind
	PlayerID   string
	PlayerName string
	Points     int
}

// NopObserver ignores everything; embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnStateChange(protocol.Snapshot)       {}
func (NopObserver) OnTimerUpdate(protocol.TimerUpdate)    {}
func (NopObserver) OnWordSelect(protocol.WordSelectPhase) {}
func (NopObserver) OnHintReveal(string)                   {}
func (NopObserver) OnPlayerUpdate([]protocol.Player)      {}
func (NopObserver) OnRoundEnd(protocol.RoundEnd)          {}
func (NopObserver) OnGameEnd([]protocol.Standing)         {}
func (NopObserver) OnChat(protocol.Chat)                  {}
func (NopObserver) OnGuessResult(GuessResult)             {}
func (NopObserver) OnTerminate(string)                    {}
