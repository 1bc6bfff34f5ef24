package qr

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// drawRaster paints the layout onto a new RGBA canvas. Without a background
// the canvas stays fully transparent outside the symbol.
func drawRaster(l symbolLayout, bg *Background, logo image.Image) image.Image {
	dc := gg.NewContext(l.Width, l.Height)

	if bg != nil {
		dc.SetColor(bg.Color)
		dc.Clear()
	}

	// All data modules share one colour, fill them as a single path.
	if len(l.Dots) > 0 {
		for _, d := range l.Dots {
			roundRectPath(dc, d)
		}
		dc.SetColor(l.DotColor)
		dc.Fill()
	}

	for _, eye := range l.Eyes {
		roundRectPath(dc, eye.Outer)
		if eye.Inner != nil {
			roundRectPath(dc, *eye.Inner)
			dc.SetFillRuleEvenOdd()
		}
		dc.SetColor(eye.Color)
		dc.Fill()
		dc.SetFillRuleWinding()
	}

	if logo != nil && l.Logo != nil {
		w := uint(math.Round(l.Logo.W))
		h := uint(math.Round(l.Logo.H))
		if w > 0 && h > 0 {
			resized := resize.Resize(w, h, logo, resize.Lanczos3)
			dc.DrawImage(resized, int(math.Round(l.Logo.X)), int(math.Round(l.Logo.Y)))
		}
	}

	return dc.Image()
}

func roundRectPath(dc *gg.Context, r roundRect) {
	tl, tr, br, bl := r.Radii[0], r.Radii[1], r.Radii[2], r.Radii[3]
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H

	dc.NewSubPath()
	dc.MoveTo(x0+tl, y0)
	dc.LineTo(x1-tr, y0)
	if tr > 0 {
		dc.DrawArc(x1-tr, y0+tr, tr, gg.Radians(270), gg.Radians(360))
	}
	dc.LineTo(x1, y1-br)
	if br > 0 {
		dc.DrawArc(x1-br, y1-br, br, 0, gg.Radians(90))
	}
	dc.LineTo(x0+bl, y1)
	if bl > 0 {
		dc.DrawArc(x0+bl, y1-bl, bl, gg.Radians(90), gg.Radians(180))
	}
	dc.LineTo(x0, y0+tl)
	if tl > 0 {
		dc.DrawArc(x0+tl, y0+tl, tl, gg.Radians(180), gg.Radians(270))
	}
	dc.ClosePath()
}
