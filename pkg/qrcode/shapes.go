package qr

import (
	"image/color"
	"math"
)

const eyeSize = 7

// roundRect is a rectangle with independent corner radii, ordered
// top-left, top-right, bottom-right, bottom-left.
type roundRect struct {
	X, Y, W, H float64
	Radii      [4]float64
}

// shape is a filled outline, optionally with a hole cut by the even-odd rule.
type shape struct {
	Outer roundRect
	Inner *roundRect
	Color color.RGBA
}

type placement struct {
	X, Y, W, H float64
}

// symbolLayout is the drawable description of one render, shared by the
// raster and vector writers so both outputs are the same figure.
type symbolLayout struct {
	Width, Height int
	Modules       int
	Dots          []roundRect
	DotColor      color.RGBA
	Eyes          []shape
	Logo          *placement
}

func buildLayout(matrix [][]bool, opts Options, logoW, logoH int) symbolLayout {
	n := len(matrix)
	side := math.Min(float64(opts.Width), float64(opts.Height))
	s := side / float64(n)
	offX := (float64(opts.Width) - side) / 2
	offY := (float64(opts.Height) - side) / 2

	l := symbolLayout{
		Width:    opts.Width,
		Height:   opts.Height,
		Modules:  n,
		DotColor: opts.Dots.Color,
	}

	// Logo box and the area cleared around it.
	var hide *placement
	if logoW > 0 && logoH > 0 && opts.ImageOptions.ImageSize > 0 {
		box := side * math.Min(opts.ImageOptions.ImageSize, 1)
		w, h := box, box
		if logoW > logoH {
			h = box * float64(logoH) / float64(logoW)
		} else if logoH > logoW {
			w = box * float64(logoW) / float64(logoH)
		}
		l.Logo = &placement{
			X: offX + (side-w)/2,
			Y: offY + (side-h)/2,
			W: w,
			H: h,
		}
		m := math.Max(opts.ImageOptions.Margin, 0)
		hide = &placement{X: l.Logo.X - m, Y: l.Logo.Y - m, W: w + 2*m, H: h + 2*m}
	}

	inEye := func(r, c int) bool {
		return (r < eyeSize && c < eyeSize) ||
			(r < eyeSize && c >= n-eyeSize) ||
			(r >= n-eyeSize && c < eyeSize)
	}
	hidden := func(r, c int) bool {
		if hide == nil {
			return false
		}
		x, y := offX+float64(c)*s, offY+float64(r)*s
		return x < hide.X+hide.W && x+s > hide.X && y < hide.Y+hide.H && y+s > hide.Y
	}
	dark := func(r, c int) bool {
		if r < 0 || c < 0 || r >= n || c >= n {
			return false
		}
		return matrix[r][c] && !inEye(r, c) && !hidden(r, c)
	}

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if !dark(r, c) {
				continue
			}
			rect := roundRect{X: offX + float64(c)*s, Y: offY + float64(r)*s, W: s, H: s}
			rect.Radii = dotRadii(opts.Dots.Type, s, dark(r-1, c), dark(r, c+1), dark(r+1, c), dark(r, c-1))
			l.Dots = append(l.Dots, rect)
		}
	}

	if n >= eyeSize {
		for _, pos := range [][2]int{{0, 0}, {0, n - eyeSize}, {n - eyeSize, 0}} {
			x := offX + float64(pos[1])*s
			y := offY + float64(pos[0])*s
			l.Eyes = append(l.Eyes, eyeFrame(opts.CornersSquare, x, y, s), eyeDot(opts.CornersDot, x, y, s))
		}
	}

	return l
}

// dotRadii rounds the corners of a module whose two adjacent sides are free.
func dotRadii(t DotType, s float64, top, right, bottom, left bool) [4]float64 {
	half := s / 2
	exposed := [4]bool{!top && !left, !top && !right, !bottom && !right, !bottom && !left}
	pick := func(r [4]float64) [4]float64 {
		for i := range r {
			if !exposed[i] {
				r[i] = 0
			}
		}
		return r
	}

	switch t {
	case DotDots:
		return [4]float64{half, half, half, half}
	case DotRounded:
		return pick([4]float64{s / 3, s / 3, s / 3, s / 3})
	case DotExtraRounded:
		return pick([4]float64{half, half, half, half})
	case DotClassy:
		return pick([4]float64{half, 0, half, 0})
	case DotClassyRounded:
		return pick([4]float64{half, s / 4, half, s / 4})
	default:
		return [4]float64{}
	}
}

func uniform(r float64) [4]float64 {
	return [4]float64{r, r, r, r}
}

func eyeFrame(o CornersSquare, x, y, s float64) shape {
	outer := roundRect{X: x, Y: y, W: eyeSize * s, H: eyeSize * s}
	inner := roundRect{X: x + s, Y: y + s, W: 5 * s, H: 5 * s}
	switch o.Type {
	case CornerSquareDot:
		outer.Radii = uniform(3.5 * s)
		inner.Radii = uniform(2.5 * s)
	case CornerSquareExtraRounded:
		outer.Radii = uniform(2.5 * s)
		inner.Radii = uniform(1.5 * s)
	}
	return shape{Outer: outer, Inner: &inner, Color: o.Color}
}

func eyeDot(o CornersDot, x, y, s float64) shape {
	dot := roundRect{X: x + 2*s, Y: y + 2*s, W: 3 * s, H: 3 * s}
	if o.Type == CornerDotDot {
		dot.Radii = uniform(1.5 * s)
	}
	return shape{Outer: dot, Color: o.Color}
}
