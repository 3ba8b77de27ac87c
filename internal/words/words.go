// Package words holds the static word list, keyed by language and split into
// difficulty tiers, and draws per-turn candidates from it.
package words

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"sort"
	"strings"
)

const DefaultLanguage = "en"

var ErrEmptyPool = errors.New("word pool is empty")

//go:embed words.json
var embedded []byte

// fallback is used when no list could be loaded at all.
var fallback = Tiers{
	Easy:   []string{"cat", "dog", "sun", "tree", "house"},
	Medium: []string{"guitar", "rainbow", "castle", "rocket", "pirate"},
	Hard:   []string{"telescope", "orchestra", "skyscraper"},
}

type Tiers struct {
	Easy   []string `json:"easy"`
	Medium []string `json:"medium"`
	Hard   []string `json:"hard"`
}

// All returns the easy, medium and hard pools combined.
func (t Tiers) All() []string {
	out := make([]string, 0, len(t.Easy)+len(t.Medium)+len(t.Hard))
	out = append(out, t.Easy...)
	out = append(out, t.Medium...)
	return append(out, t.Hard...)
}

type List struct {
	byLang map[string]Tiers
}

// Default returns the embedded list, or the built-in fallback if the embedded
// data is unusable.
func Default() *List {
	l, err := Load(bytes.NewReader(embedded))
	if err != nil {
		return &List{byLang: map[string]Tiers{DefaultLanguage: fallback}}
	}
	return l
}

func Load(r io.Reader) (*List, error) {
	var raw map[string]Tiers
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode word list: %w", err)
	}
	l := &List{byLang: make(map[string]Tiers, len(raw))}
	for lang, tiers := range raw {
		tiers = Tiers{Easy: clean(tiers.Easy), Medium: clean(tiers.Medium), Hard: clean(tiers.Hard)}
		if len(tiers.All()) == 0 {
			continue
		}
		l.byLang[strings.ToLower(lang)] = tiers
	}
	if len(l.byLang) == 0 {
		return nil, ErrEmptyPool
	}
	return l, nil
}

// LoadFile reads a list from disk; an empty path yields Default.
func LoadFile(path string) (*List, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (l *List) Languages() []string {
	langs := make([]string, 0, len(l.byLang))
	for lang := range l.byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (l *List) Has(lang string) bool {
	_, ok := l.byLang[strings.ToLower(lang)]
	return ok
}

// Pool returns the combined tiers for lang, falling back to the default
// language and then to the built-in list.
func (l *List) Pool(lang string) []string {
	if t, ok := l.byLang[strings.ToLower(lang)]; ok {
		return t.All()
	}
	if t, ok := l.byLang[DefaultLanguage]; ok {
		return t.All()
	}
	return fallback.All()
}

// Candidates draws up to n distinct words uniformly at random from pool.
func Candidates(pool []string, n int, rng *rand.Rand) ([]string, error) {
	uniq := clean(pool)
	if len(uniq) == 0 {
		return nil, ErrEmptyPool
	}
	n = min(n, len(uniq))
	rng.Shuffle(len(uniq), func(i, j int) { uniq[i], uniq[j] = uniq[j], uniq[i] })
	return uniq[:n], nil
}

// clean lower-cases, trims and de-duplicates words, dropping empties.
func clean(in []string) []string {
	var out []string
	for _, w := range in {
		w = strings.Join(strings.Fields(strings.ToLower(w)), " ")
		if w == "" || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Clean is the exported form used to normalize custom word lists. It
// returns nil when nothing survives.
func Clean(in []string) []string {
	return clean(in)
}
