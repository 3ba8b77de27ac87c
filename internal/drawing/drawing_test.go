package drawing

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = Color{R: 0xff, A: 0xff}

func TestNormalize_RoundTripAcrossExtents(t *testing.T) {
	small := Extent{Width: 400, Height: 300}
	large := Extent{Width: 1600, Height: 1200}

	n := Normalize(Point{X: 100, Y: 150}, small)
	assert.InDelta(t, 0.25, n.X, 1e-9)
	assert.InDelta(t, 0.5, n.Y, 1e-9)

	d := Denormalize(n, large)
	assert.InDelta(t, 400, d.X, 1e-9)
	assert.InDelta(t, 600, d.Y, 1e-9)
}

func TestNormalize_ClampsOutOfBounds(t *testing.T) {
	n := Normalize(Point{X: -10, Y: 900}, Extent{Width: 100, Height: 100})
	assert.Equal(t, Point{X: 0, Y: 1}, n)
	assert.Equal(t, Point{}, Normalize(Point{X: 5, Y: 5}, Extent{}))
}

func TestColor_TextRoundTrip(t *testing.T) {
	c, err := ParseColor("#12ab3f")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x12, G: 0xab, B: 0x3f, A: 0xff}, c)
	assert.Equal(t, "#12ab3f", c.String())

	_, err = ParseColor("nope")
	require.ErrorIs(t, err, ErrInvalidColor)

	b, err := json.Marshal(FloodFill(Point{X: 0.5, Y: 0.5}, red))
	require.NoError(t, err)
	var op Operation
	require.NoError(t, json.Unmarshal(b, &op))
	assert.Equal(t, red, op.Color)
	assert.Equal(t, OpFloodFill, op.Kind)
}

func TestOperation_Validate(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		ok   bool
	}{
		{name: "stroke start", op: StrokeStart(Point{X: 0.1, Y: 0.2}, red, 0.01), ok: true},
		{name: "stroke start zero width", op: StrokeStart(Point{X: 0.1, Y: 0.2}, red, 0)},
		{name: "segment", op: StrokeSegment(Point{}, Point{X: 1, Y: 1}, red, 0.01), ok: true},
		{name: "segment not normalized", op: StrokeSegment(Point{}, Point{X: 2, Y: 1}, red, 0.01)},
		{name: "fill", op: FloodFill(Point{X: 1, Y: 0}, red), ok: true},
		{name: "fill missing seed", op: Operation{Kind: OpFloodFill}},
		{name: "clear", op: Clear(), ok: true},
		{name: "empty snapshot", op: Snapshot(nil)},
		{name: "unknown", op: Operation{Kind: "spray"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.op.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidOperation)
		})
	}
}

func TestFill_SeedAlreadyTargetIsNoop(t *testing.T) {
	c := NewCanvas(20, 20)
	before := c.Clone()

	visited := Fill(c.Image(), image.Pt(5, 5), White, FillTolerance)

	assert.Zero(t, visited)
	assert.Equal(t, before.Pix, c.Image().Pix)
}

func TestFill_BoundedByStroke(t *testing.T) {
	c := NewCanvas(10, 10)
	// vertical wall at x=4
	for y := 0; y < 10; y++ {
		c.Image().SetRGBA(4, y, Black.rgba())
	}

	visited := Fill(c.Image(), image.Pt(1, 1), red, FillTolerance)

	assert.Equal(t, 40, visited)
	assert.Equal(t, red.rgba(), c.Image().RGBAAt(0, 9))
	assert.Equal(t, Black.rgba(), c.Image().RGBAAt(4, 0))
	assert.Equal(t, White.rgba(), c.Image().RGBAAt(5, 0))
}

func TestFill_ToleranceAbsorbsAntiAliasing(t *testing.T) {
	c := NewCanvas(3, 1)
	c.Image().SetRGBA(1, 0, Color{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}.rgba()) // within 32 of white
	c.Image().SetRGBA(2, 0, Color{R: 0x80, G: 0x80, B: 0x80, A: 0xff}.rgba()) // too dark

	visited := Fill(c.Image(), image.Pt(0, 0), red, FillTolerance)

	assert.Equal(t, 2, visited)
	assert.Equal(t, red.rgba(), c.Image().RGBAAt(1, 0))
	assert.NotEqual(t, red.rgba(), c.Image().RGBAAt(2, 0))
}

func TestFill_LargeRegionIsIterative(t *testing.T) {
	c := NewCanvas(1000, 1000)
	visited := Fill(c.Image(), image.Pt(500, 500), red, FillTolerance)
	assert.Equal(t, 1000*1000, visited)
}

func TestUndoStack_BoundedRing(t *testing.T) {
	var u UndoStack
	imgs := make([]*image.RGBA, UndoCapacity+5)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, i+1, 1))
		u.Push(imgs[i])
	}
	require.Equal(t, UndoCapacity, u.Len())

	for i := len(imgs) - 1; i >= 5; i-- {
		got, ok := u.Pop()
		require.True(t, ok)
		assert.Same(t, imgs[i], got)
	}
	_, ok := u.Pop()
	assert.False(t, ok)
}

func TestCanvas_SnapshotScalesToReceiver(t *testing.T) {
	src := NewCanvas(40, 40)
	_, err := src.Apply(FloodFill(Point{X: 0.5, Y: 0.5}, red))
	require.NoError(t, err)
	png, err := EncodePNG(src.Image())
	require.NoError(t, err)

	dst := NewCanvas(80, 60)
	_, err = dst.Apply(Snapshot(png))
	require.NoError(t, err)
	assert.Equal(t, red.rgba(), dst.Image().RGBAAt(79, 59))
}

func TestCanvas_StrokeLandsAtSameRelativePosition(t *testing.T) {
	op := StrokeStart(Point{X: 0.5, Y: 0.5}, red, 0.02)

	small := NewCanvas(100, 100)
	large := NewCanvas(400, 400)
	_, err := small.Apply(op)
	require.NoError(t, err)
	_, err = large.Apply(op)
	require.NoError(t, err)

	assert.Equal(t, red.rgba(), small.Image().RGBAAt(50, 50))
	assert.Equal(t, red.rgba(), large.Image().RGBAAt(200, 200))
	assert.Equal(t, White.rgba(), large.Image().RGBAAt(10, 10))
}

func TestSynchronizer_GateAndUndo(t *testing.T) {
	var sent []Operation
	s := NewSynchronizer(NewCanvas(100, 100), SyncOptions{
		Emit: func(op Operation) { sent = append(sent, op) },
	})

	require.ErrorIs(t, s.BeginStroke(Point{X: 10, Y: 10}, red, 4), ErrNotDrawer)

	s.SetDrawer("me", true)
	require.NoError(t, s.BeginStroke(Point{X: 50, Y: 50}, red, 4))
	require.NoError(t, s.ContinueStroke(Point{X: 50, Y: 50}, Point{X: 60, Y: 50}, red, 4))
	require.Len(t, sent, 2)
	assert.InDelta(t, 0.5, sent[0].Point.X, 1e-9)
	assert.InDelta(t, 0.04, sent[0].Width, 1e-9)
	assert.Equal(t, 1, s.UndoDepth())

	require.NoError(t, s.Undo())
	require.Len(t, sent, 3)
	assert.Equal(t, OpSnapshot, sent[2].Kind)
	assert.Equal(t, 0, s.UndoDepth())
	require.ErrorIs(t, s.Undo(), ErrNothingToUndo)
}

func TestSynchronizer_NoOpFillIsNotRecorded(t *testing.T) {
	var sent []Operation
	s := NewSynchronizer(NewCanvas(40, 40), SyncOptions{
		Emit: func(op Operation) { sent = append(sent, op) },
	})
	s.SetDrawer("me", true)

	require.NoError(t, s.Fill(Point{X: 5, Y: 5}, White))
	assert.Empty(t, sent)
	assert.Equal(t, 0, s.UndoDepth())

	require.NoError(t, s.Fill(Point{X: 5, Y: 5}, red))
	require.Len(t, sent, 1)
	assert.Equal(t, 1, s.UndoDepth())

	require.NoError(t, s.Fill(Point{X: 20, Y: 20}, red))
	assert.Len(t, sent, 1)
	assert.Equal(t, 1, s.UndoDepth())
}

func TestSynchronizer_IgnoresOpsFromNonDrawer(t *testing.T) {
	canvas := NewCanvas(50, 50)
	s := NewSynchronizer(canvas, SyncOptions{})
	s.SetDrawer("alice", false)

	applied, err := s.ApplyRemote("mallory", Clear())
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = s.ApplyRemote("alice", FloodFill(Point{X: 0, Y: 0}, red))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, red.rgba(), canvas.Image().RGBAAt(25, 25))

	require.ErrorIs(t, s.Fill(Point{}, red), ErrNotDrawer)
}
