package crop

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/fogleman/gg"
)

// Composite paints src into a square raster following g and clips it to a
// rounded rectangle. It returns false when g is degenerate.
func Composite(src image.Image, g Geometry) (image.Image, bool) {
	if src == nil {
		return nil, false
	}
	layout, ok := g.Layout()
	if !ok {
		return nil, false
	}

	size := int(math.Round(g.RasterSize))
	dc := gg.NewContext(size, size)

	dc.DrawRoundedRectangle(0, 0, float64(size), float64(size), layout.ClipRadius)
	dc.Clip()

	bounds := src.Bounds()
	dc.Push()
	dc.Translate(layout.Draw.X, layout.Draw.Y)
	dc.Scale(layout.Draw.Width/float64(bounds.Dx()), layout.Draw.Height/float64(bounds.Dy()))
	dc.DrawImage(src, -bounds.Min.X, -bounds.Min.Y)
	dc.Pop()

	return dc.Image(), true
}

// CompositePNG is Composite followed by PNG encoding.
func CompositePNG(src image.Image, g Geometry) ([]byte, bool, error) {
	img, ok := Composite(src, g)
	if !ok {
		return nil, false, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}
