package drawing

import "image"

// FillTolerance is the per-component difference still treated as the seed
// color, so anti-aliased stroke edges are absorbed by a fill.
const FillTolerance = 32

// Fill flood-fills the 4-connected region around seed whose colors lie within
// tolerance of the seed color. Matching reads the untouched source while the
// writes go to an off-screen copy that is committed in one pass. It returns
// the number of pixels visited; a seed already at the target color visits none.
func Fill(img *image.RGBA, seed image.Point, target Color, tolerance int) int {
	b := img.Bounds()
	if !seed.In(b) {
		return 0
	}
	want := target.rgba()
	from := img.RGBAAt(seed.X, seed.Y)
	if from == want {
		return 0
	}

	w := b.Dx()
	buf := make([]uint8, len(img.Pix))
	copy(buf, img.Pix)
	seen := make([]bool, w*b.Dy())

	matches := func(off int) bool {
		p := img.Pix[off : off+4 : off+4]
		return within(p[0], from.R, tolerance) &&
			within(p[1], from.G, tolerance) &&
			within(p[2], from.B, tolerance) &&
			within(p[3], from.A, tolerance)
	}

	visited := 0
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i := (p.Y-b.Min.Y)*w + (p.X - b.Min.X)
		if seen[i] {
			continue
		}
		seen[i] = true

		off := img.PixOffset(p.X, p.Y)
		if !matches(off) {
			continue
		}
		buf[off], buf[off+1], buf[off+2], buf[off+3] = want.R, want.G, want.B, want.A
		visited++

		if p.X > b.Min.X {
			stack = append(stack, image.Pt(p.X-1, p.Y))
		}
		if p.X < b.Max.X-1 {
			stack = append(stack, image.Pt(p.X+1, p.Y))
		}
		if p.Y > b.Min.Y {
			stack = append(stack, image.Pt(p.X, p.Y-1))
		}
		if p.Y < b.Max.Y-1 {
			stack = append(stack, image.Pt(p.X, p.Y+1))
		}
	}
	copy(img.Pix, buf)
	return visited
}

func within(a, b uint8, tolerance int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
