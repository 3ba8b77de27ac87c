package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/drawguess/internal/protocol"
)

func TestValidateSettings(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*protocol.Settings)
		ok   bool
	}{
		{name: "defaults", mod: func(*protocol.Settings) {}, ok: true},
		{name: "one player", mod: func(s *protocol.Settings) { s.MaxPlayers = 1 }},
		{name: "too many players", mod: func(s *protocol.Settings) { s.MaxPlayers = 21 }},
		{name: "draw time low", mod: func(s *protocol.Settings) { s.DrawTimeSeconds = 14 }},
		{name: "draw time high", mod: func(s *protocol.Settings) { s.DrawTimeSeconds = 241 }},
		{name: "no rounds", mod: func(s *protocol.Settings) { s.TotalRounds = 0 }},
		{name: "negative hints", mod: func(s *protocol.Settings) { s.HintCount = -1 }},
		{name: "no choices", mod: func(s *protocol.Settings) { s.WordChoicesPerTurn = 0 }},
		{name: "edges", mod: func(s *protocol.Settings) {
			s.MaxPlayers, s.DrawTimeSeconds, s.TotalRounds, s.HintCount, s.WordChoicesPerTurn = 20, 240, 10, 5, 5
		}, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mod(&s)
			_, err := ValidateSettings(s)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestValidateSettings_Normalizes(t *testing.T) {
	s := DefaultSettings()
	s.Language = " ES "
	s.CustomWords = []string{"Taco", "taco", " ", "Burrito  Grande"}

	got, err := ValidateSettings(s)

	require.NoError(t, err)
	assert.Equal(t, "es", got.Language)
	assert.Equal(t, []string{"taco", "burrito grande"}, got.CustomWords)
}
