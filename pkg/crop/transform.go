package crop

import "math"

const (
	MinScale = 0.5
	MaxScale = 4.0

	DefaultScale = 1.0
	// CompactScale is the initial zoom used by the compact (small viewport) profile.
	CompactScale = 1.5
)

// State is the user's pan/zoom choice over a source image. It is independent
// of the source resolution and of the output raster size.
type State struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// NewState returns a centered state with the given scale.
func NewState(scale float64) State {
	return State{Scale: ClampScale(scale)}
}

// ClampScale bounds a zoom value to [MinScale, MaxScale].
func ClampScale(scale float64) float64 {
	switch {
	case math.IsNaN(scale):
		return MinScale
	case scale < MinScale:
		return MinScale
	case scale > MaxScale:
		return MaxScale
	}
	return scale
}

// Rect is a floating point rectangle in raster pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry holds every input of the crop transform.
type Geometry struct {
	NaturalWidth  int
	NaturalHeight int
	State         State
	ViewportSize  float64
	BorderRadius  float64
	RasterSize    float64
}

// Layout is the result of the crop transform: where to paint the source image
// on a RasterSize×RasterSize canvas and the corner radius of the clip path.
type Layout struct {
	Draw       Rect    `json:"draw"`
	ClipRadius float64 `json:"clipRadius"`
}

// At returns a copy of g targeting another raster size. Passing the viewport
// size yields the live preview geometry.
func (g Geometry) At(rasterSize float64) Geometry {
	g.RasterSize = rasterSize
	return g
}

// Layout computes the draw rectangle and clip radius. The second return value
// is false for degenerate input (empty source, viewport or raster), in which
// case nothing must be drawn.
func (g Geometry) Layout() (Layout, bool) {
	if g.NaturalWidth <= 0 || g.NaturalHeight <= 0 || g.ViewportSize <= 0 || g.RasterSize <= 0 {
		return Layout{}, false
	}

	scale := ClampScale(g.State.Scale)
	aspect := float64(g.NaturalWidth) / float64(g.NaturalHeight)

	// Fit by the shorter side, then zoom.
	var w, h float64
	if aspect >= 1 {
		h = g.RasterSize * scale
		w = h * aspect
	} else {
		w = g.RasterSize * scale
		h = w / aspect
	}

	ratio := g.RasterSize / g.ViewportSize
	draw := Rect{
		X:      (g.RasterSize-w)/2 + g.State.OffsetX*ratio,
		Y:      (g.RasterSize-h)/2 + g.State.OffsetY*ratio,
		Width:  w,
		Height: h,
	}

	radius := g.BorderRadius / g.ViewportSize * g.RasterSize
	if radius < 0 {
		radius = 0
	}
	if radius > g.RasterSize/2 {
		radius = g.RasterSize / 2
	}

	return Layout{Draw: draw, ClipRadius: radius}, true
}
