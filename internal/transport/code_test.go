package transport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	seen := map[string]bool{}
	for range 200 {
		c := NewCode()
		require.Len(t, c, CodeLength)
		require.True(t, ValidCode(c), c)
		for _, r := range c {
			assert.NotContains(t, "0O1IL", string(r))
		}
		seen[c] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"ABC234", "ABC234", true},
		{"  abc234\n", "ABC234", true},
		{"abc23", "ABC23", false},
		{"ABC230", "ABC230", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got := NormalizeCode(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.valid, ValidCode(got), tc.in)
	}
}

func seq(codes ...string) func() string {
	i := 0
	return func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}

func TestCreateSession_RetriesCollisions(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()
	require.NoError(t, dir.Register(ctx, "AAAAAA", "elsewhere:1"))
	require.NoError(t, dir.Register(ctx, "BBBBBB", "elsewhere:2"))

	h := NewHub(HubOptions{Addr: "here:1", Directory: dir, NewCode: seq("AAAAAA", "BBBBBB", "CCCCCC"), Logger: quietLogger()})
	code, err := h.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CCCCCC", code)
	assert.Equal(t, "CCCCCC", h.Code())

	addr, err := dir.Lookup(ctx, "CCCCCC")
	require.NoError(t, err)
	assert.Equal(t, "here:1", addr)
}

func TestCreateSession_GivesUpAfterFiveCollisions(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()
	require.NoError(t, dir.Register(ctx, "AAAAAA", "elsewhere:1"))

	calls := 0
	h := NewHub(HubOptions{Directory: dir, Logger: quietLogger(), NewCode: func() string {
		calls++
		return "AAAAAA"
	}})
	_, err := h.CreateSession(ctx)
	require.ErrorIs(t, err, ErrSessionCreation)
	assert.Equal(t, MaxCreateAttempts, calls)
	assert.Empty(t, h.Code())
}

func TestDirectories(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryDirectory()
	_, err := mem.Lookup(ctx, "ZZZZZZ")
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mem.Register(ctx, "ZZZZZZ", "a:1"))
	require.ErrorIs(t, mem.Register(ctx, "ZZZZZZ", "b:1"), ErrCodeTaken)
	require.NoError(t, mem.Release(ctx, "ZZZZZZ"))
	_, err = mem.Lookup(ctx, "ZZZZZZ")
	require.ErrorIs(t, err, ErrSessionNotFound)

	addr, err := StaticDirectory{Addr: "lan:9"}.Lookup(ctx, "ANYONE")
	require.NoError(t, err)
	assert.Equal(t, "lan:9", addr)
	_, err = StaticDirectory{}.Lookup(ctx, "ANYONE")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWSURL(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:8080":          "ws://127.0.0.1:8080/ws/ABCDEF",
		"http://host:1":           "ws://host:1/ws/ABCDEF",
		"https://play.example/dg": "wss://play.example/dg/ws/ABCDEF",
		"ws://h:2/":               "ws://h:2/ws/ABCDEF",
	}
	for in, want := range cases {
		got, err := wsURL(in, "ABCDEF")
		require.NoError(t, err, in)
		assert.True(t, strings.EqualFold(want, got), "%s: got %s", in, got)
	}
}
