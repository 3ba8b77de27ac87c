package guess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		guess     string
		word      string
		remaining int
		drawTime  int
		want      Kind
		points    int
	}{
		{name: "exact", guess: "cat", word: "cat", remaining: 40, drawTime: 80, want: Correct, points: 250},
		{name: "case and spaces", guess: "  CaT ", word: "cat", remaining: 80, drawTime: 80, want: Correct, points: 500},
		{name: "late guess floors at 50", guess: "cat", word: "cat", remaining: 3, drawTime: 80, want: Correct, points: 50},
		{name: "kat is a miss", guess: "kat", word: "cat", remaining: 40, drawTime: 80, want: Miss},
		{name: "one typo in long word is close", guess: "elephent", word: "elephant", remaining: 40, drawTime: 80, want: Close},
		{name: "empty", guess: "   ", word: "cat", remaining: 40, drawTime: 80, want: Miss},
		{name: "multi word", guess: "ice cream", word: "ice cream", remaining: 20, drawTime: 80, want: Correct, points: 125},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.guess, tc.word, tc.remaining, tc.drawTime)
			assert.Equal(t, tc.want, got.Kind)
			assert.Equal(t, tc.points, got.Points)
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 2.0/3.0, Similarity("kat", "cat"), 1e-9)
	assert.Equal(t, 1.0, Similarity("cat", "cat"))
	assert.Equal(t, 1.0, Similarity("", ""))

	pairs := [][2]string{{"kat", "cat"}, {"house", "mouse"}, {"a", "banana"}, {"über", "uber"}}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q/%q", p[0], p[1])
	}
}

func TestTimeBonus(t *testing.T) {
	assert.Equal(t, 250, TimeBonus(40, 80))
	assert.Equal(t, 500, TimeBonus(80, 80))
	assert.Equal(t, 50, TimeBonus(0, 80))
	assert.Equal(t, 50, TimeBonus(-5, 80))
	assert.Equal(t, 50, TimeBonus(10, 0))
	assert.Equal(t, 166, TimeBonus(80, 240))
}
