package drawing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
)

var (
	ErrInvalidOperation = errors.New("invalid draw operation")
	ErrInvalidColor     = errors.New("invalid color")
	ErrNotDrawer        = errors.New("drawing is disabled for this participant")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// OpKind tags the DrawOperation variant.
type OpKind string

const (
	OpStrokeStart   OpKind = "strokeStart"
	OpStrokeSegment OpKind = "strokeSegment"
	OpFloodFill     OpKind = "floodFill"
	OpClear         OpKind = "clear"
	OpSnapshot      OpKind = "snapshot"
)

// Point is either a pixel position on a local canvas or, on the wire, a
// fraction of the emitter's extent in [0,1] per axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Extent is the logical size of a canvas.
type Extent struct {
	Width  float64
	Height float64
}

func (e Extent) valid() bool {
	return e.Width > 0 && e.Height > 0
}

// Normalize maps a local pixel position to fractions of e, clamped to [0,1].
func Normalize(p Point, e Extent) Point {
	if !e.valid() {
		return Point{}
	}
	return Point{X: clamp01(p.X / e.Width), Y: clamp01(p.Y / e.Height)}
}

// Denormalize maps a normalized position back onto e.
func Denormalize(p Point, e Extent) Point {
	return Point{X: clamp01(p.X) * e.Width, Y: clamp01(p.Y) * e.Height}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Color is an RGBA color that travels as "#rrggbb" or "#rrggbbaa".
type Color color.RGBA

var (
	White = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = Color{A: 0xff}
)

func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c := Color{R: b[0], G: b[1], B: b[2], A: 0xff}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) rgba() color.RGBA {
	return color.RGBA(c)
}

// Operation is the tagged DrawOperation variant. Which fields are set depends
// on Kind; use the constructors and Validate.
type Operation struct {
	Kind  OpKind  `json:"kind"`
	Point *Point  `json:"point,omitempty"` // strokeStart, floodFill seed
	From  *Point  `json:"from,omitempty"`  // strokeSegment
	To    *Point  `json:"to,omitempty"`    // strokeSegment
	Color Color   `json:"color"`
	Width float64 `json:"width,omitempty"` // fraction of extent width
	Image []byte  `json:"image,omitempty"` // snapshot PNG
}

func StrokeStart(p Point, c Color, width float64) Operation {
	return Operation{Kind: OpStrokeStart, Point: &p, Color: c, Width: width}
}

func StrokeSegment(from, to Point, c Color, width float64) Operation {
	return Operation{Kind: OpStrokeSegment, From: &from, To: &to, Color: c, Width: width}
}

func FloodFill(seed Point, c Color) Operation {
	return Operation{Kind: OpFloodFill, Point: &seed, Color: c}
}

func Clear() Operation {
	return Operation{Kind: OpClear}
}

func Snapshot(png []byte) Operation {
	return Operation{Kind: OpSnapshot, Image: png}
}

// Validate checks that op carries the fields its kind requires and that every
// coordinate is normalized.
func (op Operation) Validate() error {
	switch op.Kind {
	case OpStrokeStart:
		if op.Point == nil || !normalized(*op.Point) || op.Width <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidOperation, op.Kind)
		}
	case OpStrokeSegment:
		if op.From == nil || op.To == nil || !normalized(*op.From) || !normalized(*op.To) || op.Width <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidOperation, op.Kind)
		}
	case OpFloodFill:
		if op.Point == nil || !normalized(*op.Point) {
			return fmt.Errorf("%w: %s", ErrInvalidOperation, op.Kind)
		}
	case OpClear:
	case OpSnapshot:
		if len(op.Image) == 0 {
			return fmt.Errorf("%w: empty snapshot", ErrInvalidOperation)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	return nil
}

func normalized(p Point) bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}
