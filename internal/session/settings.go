package session

import (
	"fmt"
	"strings"

	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/words"
)

const (
	MinCustomWords = 10

	WordSelectSeconds = 15
	RoundEndHold      = 4 // seconds
)

func DefaultSettings() protocol.Settings {
	return protocol.Settings{
		MaxPlayers:         8,
		DrawTimeSeconds:    80,
		TotalRounds:        3,
		HintCount:          2,
		WordChoicesPerTurn: 3,
		Language:           words.DefaultLanguage,
	}
}

type bound struct {
	name     string
	val      int
	min, max int
}

// ValidateSettings checks numeric bounds and returns a normalized copy
// (language lower-cased, custom words cleaned). The custom-words-only minimum
// is enforced at game start, not here.
func ValidateSettings(s protocol.Settings) (protocol.Settings, error) {
	for _, b := range []bound{
		{"maxPlayers", s.MaxPlayers, 2, 20},
		{"drawTimeSeconds", s.DrawTimeSeconds, 15, 240},
		{"totalRounds", s.TotalRounds, 1, 10},
		{"hintCount", s.HintCount, 0, 5},
		{"wordChoicesPerTurn", s.WordChoicesPerTurn, 1, 5},
	} {
		if b.val < b.min || b.val > b.max {
			return s, fmt.Errorf("%w: %s must be in [%d, %d], got %d", ErrInvalidSettings, b.name, b.min, b.max, b.val)
		}
	}
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	if s.Language == "" {
		s.Language = words.DefaultLanguage
	}
	s.CustomWords = words.Clean(s.CustomWords)
	return s, nil
}
