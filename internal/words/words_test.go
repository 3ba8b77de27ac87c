package words

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasTiersPerLanguage(t *testing.T) {
	l := Default()
	assert.Contains(t, l.Languages(), "en")
	assert.True(t, l.Has("EN"))
	pool := l.Pool("en")
	assert.Contains(t, pool, "cat")
	assert.Contains(t, pool, "guitar")
	assert.Contains(t, pool, "telescope")
}

func TestPool_FallsBackToDefaultLanguage(t *testing.T) {
	l := Default()
	assert.Equal(t, l.Pool("en"), l.Pool("klingon"))
}

func TestLoad_RejectsEmpty(t *testing.T) {
	_, err := Load(strings.NewReader(`{"en":{"easy":[" "]}}`))
	require.ErrorIs(t, err, ErrEmptyPool)

	_, err = Load(strings.NewReader(`[`))
	require.Error(t, err)
}

func TestCandidates_DistinctAndBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := []string{"Cat", "cat", "dog", "bird", "fish"}

	got, err := Candidates(pool, 3, rng)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	seen := map[string]bool{}
	for _, w := range got {
		assert.False(t, seen[w], "duplicate %q", w)
		seen[w] = true
		assert.Contains(t, []string{"cat", "dog", "bird", "fish"}, w)
	}

	got, err = Candidates(pool, 10, rng)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = Candidates(nil, 3, rng)
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, []string{"ice cream", "cat"}, Clean([]string{"  Ice   Cream ", "CAT", "", "cat"}))
	assert.Nil(t, Clean([]string{" ", ""}))
	assert.Nil(t, Clean(nil))
}
