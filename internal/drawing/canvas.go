package drawing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Canvas is a participant's local raster. Its logical extent is its pixel
// size; every op arriving from the wire is denormalized against it.
type Canvas struct {
	img        *image.RGBA
	background Color
}

func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: White,
	}
	c.clear()
	return c
}

func (c *Canvas) Extent() Extent {
	b := c.img.Bounds()
	return Extent{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Image exposes the visible surface. Callers must not retain it across Apply.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Clone copies the visible surface, used for undo snapshots.
func (c *Canvas) Clone() *image.RGBA {
	dup := image.NewRGBA(c.img.Bounds())
	copy(dup.Pix, c.img.Pix)
	return dup
}

// Restore replaces the visible surface with img, scaling when sizes differ.
func (c *Canvas) Restore(img image.Image) {
	if img.Bounds() == c.img.Bounds() {
		if rgba, ok := img.(*image.RGBA); ok {
			copy(c.img.Pix, rgba.Pix)
			return
		}
	}
	xdraw.NearestNeighbor.Scale(c.img, c.img.Bounds(), img, img.Bounds(), xdraw.Src, nil)
}

// Apply renders a normalized op onto the canvas and returns the number of
// pixels a flood fill touched (0 for other kinds).
func (c *Canvas) Apply(op Operation) (int, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	ext := c.Extent()
	switch op.Kind {
	case OpStrokeStart:
		p := Denormalize(*op.Point, ext)
		c.stamp(p, c.radius(op.Width), op.Color.rgba())
	case OpStrokeSegment:
		c.line(Denormalize(*op.From, ext), Denormalize(*op.To, ext), c.radius(op.Width), op.Color)
	case OpFloodFill:
		seed := c.pixelAt(Denormalize(*op.Point, ext))
		return Fill(c.img, seed, op.Color, FillTolerance), nil
	case OpClear:
		c.clear()
	case OpSnapshot:
		img, err := DecodePNG(op.Image)
		if err != nil {
			return 0, err
		}
		c.Restore(img)
	}
	return 0, nil
}

func (c *Canvas) clear() {
	bg := c.background.rgba()
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
}

func (c *Canvas) radius(width float64) int {
	px := width * c.Extent().Width
	return int(math.Round(px / 2))
}

func (c *Canvas) pixelAt(p Point) image.Point {
	b := c.img.Bounds()
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return image.Pt(x, y)
}

// stamp paints a filled disc of radius r centred on p.
func (c *Canvas) stamp(p Point, r int, col color.RGBA) {
	center := c.pixelAt(p)
	b := c.img.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
				continue
			}
			c.img.SetRGBA(x, y, col)
		}
	}
}

func (c *Canvas) line(from, to Point, r int, col Color) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.stamp(from, r, col.rgba())
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.stamp(Point{X: from.X + dx*t, Y: from.Y + dy*t}, r, col.rgba())
	}
}

// EncodePNG serializes a raster for the wire.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodePNG(b []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrInvalidOperation, err)
	}
	return img, nil
}
