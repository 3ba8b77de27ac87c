// Package guess classifies chat guesses against the secret word and prices
// correct ones.
package guess

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// CloseThreshold is the minimum similarity for a near miss.
	CloseThreshold = 0.8

	MaxGuesserPoints = 500
	MinGuesserPoints = 50
	// DrawerPointsPerGuess is credited to the drawer for every correct guesser.
	DrawerPointsPerGuess = 25
)

type Kind int

const (
	Miss Kind = iota
	Close
	Correct
)

func (k Kind) String() string {
	switch k {
	case Correct:
		return "correct"
	case Close:
		return "close"
	default:
		return "miss"
	}
}

type Result struct {
	Kind       Kind
	Similarity float64
	// Points is the guesser reward; only set for Correct.
	Points int
}

// Evaluate compares a raw guess with the authoritative word. remaining and
// drawTime are in seconds and price a correct guess at the moment it is
// validated.
func Evaluate(rawGuess, word string, remaining, drawTime int) Result {
	g := Normalize(rawGuess)
	w := Normalize(word)
	if g == "" {
		return Result{Kind: Miss}
	}
	if g == w {
		return Result{Kind: Correct, Similarity: 1, Points: TimeBonus(remaining, drawTime)}
	}
	sim := Similarity(g, w)
	if sim >= CloseThreshold {
		return Result{Kind: Close, Similarity: sim}
	}
	return Result{Kind: Miss, Similarity: sim}
}

// Normalize trims and lower-cases a guess or word.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity is (max(len) - editDistance) / max(len), counted in runes.
func Similarity(a, b string) float64 {
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return float64(n-d) / float64(n)
}

// TimeBonus is max(50, floor(500 * remaining / drawTime)).
func TimeBonus(remaining, drawTime int) int {
	if drawTime <= 0 {
		return MinGuesserPoints
	}
	if remaining < 0 {
		remaining = 0
	}
	return max(MinGuesserPoints, MaxGuesserPoints*remaining/drawTime)
}
