package crop

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkerSource builds a two-colour source so offsets change the composite.
func checkerSource(t *testing.T, w, h int) *Source {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 220, G: 40, B: 40, A: 255}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{R: 30, G: 90, B: 200, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	src, err := DecodeSourceBytes(buf.Bytes(), "checker.png")
	require.NoError(t, err)
	return src
}

func newTestController(outputs *[]Output) *Controller {
	return NewController(Options{
		RasterSize:   128,
		ViewportSize: 64,
		BorderRadius: 8,
		OnChange: func(o Output) {
			if outputs != nil {
				*outputs = append(*outputs, o)
			}
		},
	})
}

func TestDecodeSourceRejectsGarbage(t *testing.T) {
	_, err := DecodeSourceBytes([]byte("not an image"), "x.png")
	assert.Error(t, err)
}

func TestControllerLoadSourceEmitsDefaults(t *testing.T) {
	var outputs []Output
	c := newTestController(&outputs)

	require.True(t, c.LoadSource(checkerSource(t, 40, 20), nil))
	require.Len(t, outputs, 1)
	assert.Equal(t, State{Scale: DefaultScale}, outputs[0].State)
	assert.NotEmpty(t, outputs[0].Logo)

	img, err := png.Decode(bytes.NewReader(outputs[0].Logo))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 128), img.Bounds())
}

func TestControllerDefaultScaleProfile(t *testing.T) {
	c := NewController(Options{RasterSize: 64, ViewportSize: 64, DefaultScale: CompactScale})
	require.True(t, c.LoadSource(checkerSource(t, 16, 16), nil))
	assert.Equal(t, CompactScale, c.State().Scale)
}

func TestControllerDrag(t *testing.T) {
	var outputs []Output
	c := newTestController(&outputs)
	require.True(t, c.LoadSource(checkerSource(t, 32, 32), &State{Scale: 1, OffsetX: 5, OffsetY: 5}))

	assert.False(t, c.PointerMove(50, 50), "move without a drag must be ignored")

	c.PointerDown(20, 20)
	assert.True(t, c.Dragging())
	assert.True(t, c.PointerMove(30, 12))
	assert.Equal(t, State{Scale: 1, OffsetX: 15, OffsetY: -3}, c.State())

	c.PointerUp()
	assert.False(t, c.Dragging())
	assert.False(t, c.PointerMove(100, 100))
	assert.Equal(t, State{Scale: 1, OffsetX: 15, OffsetY: -3}, c.State())

	last := outputs[len(outputs)-1]
	assert.Equal(t, c.State(), last.State)
	assert.Equal(t, c.Logo(), last.Logo)
}

func TestControllerPointerLeaveReleasesDrag(t *testing.T) {
	c := newTestController(nil)
	require.True(t, c.LoadSource(checkerSource(t, 32, 32), nil))

	c.PointerDown(0, 0)
	c.PointerMove(4, 4)
	c.PointerLeave()
	assert.False(t, c.Dragging())
	assert.False(t, c.PointerMove(40, 40))
	assert.Equal(t, 4.0, c.State().OffsetX)
}

func TestControllerZoomIsClamped(t *testing.T) {
	c := newTestController(nil)
	require.True(t, c.LoadSource(checkerSource(t, 32, 32), nil))

	c.SetScale(100)
	assert.Equal(t, MaxScale, c.State().Scale)
	c.SetScale(-3)
	assert.Equal(t, MinScale, c.State().Scale)

	for _, delta := range []float64{-1e6, 250, -3, 1e6, 0.5, -42} {
		c.Wheel(delta)
		assert.GreaterOrEqual(t, c.State().Scale, MinScale)
		assert.LessOrEqual(t, c.State().Scale, MaxScale)
	}

	c.SetScale(2)
	c.Wheel(500)
	assert.InDelta(t, 1.5, c.State().Scale, 1e-9)
}

func TestControllerEmptySourceKeepsPreviousLogo(t *testing.T) {
	c := newTestController(nil)
	require.True(t, c.LoadSource(checkerSource(t, 32, 32), nil))
	before := c.Logo()

	assert.False(t, c.LoadSource(&Source{Name: "empty.png"}, nil))
	assert.False(t, c.LoadSource(nil, nil))
	assert.Equal(t, before, c.Logo())
}

func TestControllerViewportAndRadiusRecompose(t *testing.T) {
	var outputs []Output
	c := newTestController(&outputs)
	require.True(t, c.LoadSource(checkerSource(t, 32, 32), nil))

	assert.True(t, c.SetBorderRadius(32))
	assert.False(t, c.SetBorderRadius(32))
	assert.True(t, c.SetViewport(128))
	assert.False(t, c.SetViewport(0))
	assert.Len(t, outputs, 3)
}

func TestControllerRoundTripIsByteIdentical(t *testing.T) {
	src := checkerSource(t, 90, 60)
	saved := State{Scale: 2.3, OffsetX: 15, OffsetY: -7}

	c := newTestController(nil)
	require.True(t, c.LoadSource(src, nil))
	c.SetScale(saved.Scale)
	c.PointerDown(0, 0)
	c.PointerMove(saved.OffsetX, saved.OffsetY)
	c.PointerUp()
	require.Equal(t, saved, c.State())
	before := c.Logo()

	reloaded, err := DecodeSourceBytes(src.Data, src.Name)
	require.NoError(t, err)
	r := newTestController(nil)
	require.True(t, r.LoadSource(reloaded, &saved))

	assert.Equal(t, saved, r.State())
	assert.True(t, bytes.Equal(before, r.Logo()))
}

func TestCompositeClipsCorners(t *testing.T) {
	src := checkerSource(t, 32, 32)
	g := Geometry{NaturalWidth: 32, NaturalHeight: 32, State: State{Scale: 1}, ViewportSize: 64, BorderRadius: 32, RasterSize: 128}
	img, ok := Composite(src.Image, g)
	require.True(t, ok)

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "corner outside the rounded clip must stay transparent")
	_, _, _, a = img.At(64, 64).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}
